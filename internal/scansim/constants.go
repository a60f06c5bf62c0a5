package scansim

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusConflict = 409
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	maxTokenBytes        = 4096
)
