package viewer

import "github.com/brensch/snekarcade/game"

type StatsResponse struct {
	Mode    string             `json:"mode"`
	Total   int                `json:"total"`
	Offset  int                `json:"offset"`
	Limit   int                `json:"limit"`
	Results []game.RoundResult `json:"results"`
}

// ReplaySummary describes one recorded round.
type ReplaySummary struct {
	RoundID    string `json:"round_id"`
	Player     string `json:"player"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	Barrier    string `json:"barrier"`
	GridSize   int32  `json:"grid_size"`
	Steps      int32  `json:"steps"`
	Frames     int64  `json:"frames"`
	Score      int32  `json:"score"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	Reason     string `json:"reason"`
	File       string `json:"file"`
}

type ReplaysResponse struct {
	Total   int64           `json:"total"`
	Replays []ReplaySummary `json:"replays"`
}

type ReplayFrame struct {
	Seq       int32        `json:"seq"`
	Step      int32        `json:"step"`
	Event     string       `json:"event"`
	Reason    string       `json:"reason"`
	Score     int32        `json:"score"`
	ElapsedMs int64        `json:"elapsed_ms"`
	Snake     []game.Point `json:"snake"`
	Food      game.Point   `json:"food"`
}

type ReplayResponse struct {
	RoundID  string        `json:"round_id"`
	GridSize int32         `json:"grid_size"`
	Barrier  string        `json:"barrier"`
	Barriers []game.Point  `json:"barriers"`
	Frames   []ReplayFrame `json:"frames"`
}
