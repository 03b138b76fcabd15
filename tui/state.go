package tui

type state int

const (
	loadingState state = iota
	playerState
	queueState
	tracksState
	errorState
)
