package llm

// DefaultSystemPrompt is prepended to every prompt sent to the model.
const DefaultSystemPrompt = "You are a helpful, respectful and honest assistant. Always answer as helpfully as possible, while being safe.  Your answers should not include any harmful, unethical, racist, sexist, toxic, dangerous, or illegal content. Please ensure that your responses are socially unbiased and positive in nature.\n" +
	"If a question does not make any sense, or is not factually coherent, explain why instead of answering something not correct. If you don't know the answer to a question, please don't share false information."

// Parameters control generation. They are sent unchanged to the backend.
type Parameters struct {
	MaxNewTokens int
	TopP         float64
	Temperature  float64
}

// DefaultParameters returns the sampling parameters the hosted Llama 2
// endpoint was tuned with.
func DefaultParameters() Parameters {
	return Parameters{
		MaxNewTokens: 1000,
		TopP:         0.9,
		Temperature:  0.6,
	}
}

// ChatRequest is the provider-agnostic form of a single completion call.
// Providers translate it into their own wire format.
type ChatRequest struct {
	Model      string
	Messages   []Message
	Parameters Parameters
}

// NewChatRequest wraps prompt as the user message after the system prompt.
// An empty system prompt is omitted.
func NewChatRequest(model, system, prompt string, params Parameters) *ChatRequest {
	msgs := make([]Message, 0, 2)
	if system != "" {
		msgs = append(msgs, NewTextMessage(RoleSystem, system))
	}
	msgs = append(msgs, NewTextMessage(RoleUser, prompt))
	return &ChatRequest{
		Model:      model,
		Messages:   msgs,
		Parameters: params,
	}
}
