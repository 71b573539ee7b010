package sagemaker

// invokeRequest is the JumpStart Llama 2 chat payload: a batch of dialogs,
// each an ordered list of role/content messages.
type invokeRequest struct {
	Inputs     [][]sagemakerMessage `json:"inputs"`
	Parameters invokeParameters     `json:"parameters"`
}

type sagemakerMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	TopP         float64 `json:"top_p"`
	Temperature  float64 `json:"temperature"`
}

// invokeResponse holds one generation per input dialog.
type invokeResponse []struct {
	Generation *struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"generation"`
}
