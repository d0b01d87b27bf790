package client

import "quill/internal/types"

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type VaultsResponse struct {
	Vaults []*types.Vault `json:"vaults"`
}

type OpenSessionRequest struct {
	Vault     string `json:"vault"`
	SessionID string `json:"sessionId,omitempty"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Vault     string `json:"vault"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type TasksResponse struct {
	Tasks []types.TaskItem `json:"tasks"`
}

type UpdateTaskRequest struct {
	FilePath   string `json:"filePath"`
	LineNumber int    `json:"lineNumber"`
	State      string `json:"state"`
}
