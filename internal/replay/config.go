package replay

import "time"

// Config holds configuration for a replay run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumSessions int           // Number of sessions to create
	Gestures    int           // Number of gestures to replay per session
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	FrameRate   int           // Synthetic frame feed rate (fps); 0 disables the feed
	OutputFile  string        // Output file for generated traces
	LogFile     string        // Log file for replay output
	Verbose     bool          // Enable verbose logging
}

// TouchEvent mirrors the wire schema for POST /sessions/{id}/touches.
type TouchEvent struct {
	TouchID  int     `json:"touch_id"`
	Phase    string  `json:"phase"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	TS       string  `json:"ts"`
	Pressure float64 `json:"pressure,omitempty"`
}

// Trace is one synthetic gesture: the label it was generated as plus the
// touch events that perform it.
type Trace struct {
	Gesture string       `json:"gesture"`
	Events  []TouchEvent `json:"events"`
}

// CreateSessionResponse is the body of POST /sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// PredictionResponse is the body of GET /sessions/{id}/prediction.
type PredictionResponse struct {
	Gesture     string  `json:"gesture"`
	Confidence  string  `json:"confidence"`
	Probability float64 `json:"probability"`
	ShouldAct   bool    `json:"should_act"`
}

// SessionMetricsResponse is the body of GET /sessions/{id}/metrics.
type SessionMetricsResponse struct {
	TotalPredictions     int64   `json:"total_predictions"`
	CorrectPredictions   int64   `json:"correct_predictions"`
	IncorrectPredictions int64   `json:"incorrect_predictions"`
	Accuracy             float64 `json:"accuracy"`
}

// AckResponse is the generic acknowledgement body.
type AckResponse struct {
	Status string `json:"status"`
}

// Stats holds replay statistics.
type Stats struct {
	GesturesGenerated   int
	SessionsCreated     int
	GesturesReplayed    int
	TouchesSubmitted    int
	TouchesAccepted     int
	TouchesRejected     int
	PredictionsObserved int
	PredictionsMatched  int
	FramesSubmitted     int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
