package domain

type LoadingState string

const (
	Loading LoadingState = "loading"
	Done    LoadingState = "done"
	Error   LoadingState = "error"
)
