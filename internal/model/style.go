package model

type DesignStyle struct {
	ID          string
	Name        string
	Description string
	Prompt      string
	Icon        string
}
