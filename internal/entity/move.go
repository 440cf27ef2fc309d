package entity

// Move is one ply as submitted by a participant and as recorded in the
// history. MoveNumber is assigned by the state machine on acceptance
// and is 1-based; submitted moves leave it zero.
type Move struct {
	From       Coordinate `json:"from"`
	To         Coordinate `json:"to"`
	PieceType  PieceType  `json:"piece_type"`
	IsCapture  bool       `json:"is_capture"`
	MoveNumber int        `json:"move_number,omitempty"`
}

// SameAction reports whether two moves describe the same board action,
// ignoring the history-assigned move number.
func (that Move) SameAction(other Move) bool {
	return that.From == other.From &&
		that.To == other.To &&
		that.PieceType == other.PieceType &&
		that.IsCapture == other.IsCapture
}
