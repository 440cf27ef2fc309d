package entity

// BoardSize is the number of cells along each axis of the board.
const BoardSize = 9

// MaxStackHeight is the tallest tower of pieces a single cell may hold.
const MaxStackHeight = 3

const (
	SideBlack Side = "black"
	SideWhite Side = "white"
)

// Side identifies one of the two armies in a match. Black always moves first.
type Side string

func (that Side) Opponent() Side {
	if that == SideBlack {
		return SideWhite
	}
	return SideBlack
}

func (that Side) IsValid() bool {
	return that == SideBlack || that == SideWhite
}

// Forward is the Y direction the side advances in: black marches toward
// row 0, white toward row 8.
func (that Side) Forward() int {
	if that == SideBlack {
		return -1
	}
	return 1
}

type PieceType string

const (
	PieceMarshal    PieceType = "marshal"
	PieceGeneral    PieceType = "general"
	PieceLieutenant PieceType = "lieutenant"
	PieceKnight     PieceType = "knight"
	PieceLancer     PieceType = "lancer"
	PieceArcher     PieceType = "archer"
	PieceSoldier    PieceType = "soldier"
)

// Piece is a single stone on the board. Its tier is derived from its
// position inside a stack and is never stored. Owner changes only when
// the piece is captured and joins the capturer's pile.
type Piece struct {
	Type  PieceType `json:"type"`
	Owner Side      `json:"owner"`
}

// Stack holds the pieces of one cell ordered bottom to top. Only the
// top piece is movable or capturable.
type Stack []Piece

func (that Stack) Height() int {
	return len(that)
}

func (that Stack) IsEmpty() bool {
	return len(that) == 0
}

func (that Stack) IsFull() bool {
	return len(that) >= MaxStackHeight
}

// Top returns the interactable piece of the stack, if any.
func (that Stack) Top() (Piece, bool) {
	if len(that) == 0 {
		return Piece{}, false
	}
	return that[len(that)-1], true
}

// TopTier is the 1-based tier of the top piece, 0 for an empty stack.
func (that Stack) TopTier() int {
	return len(that)
}

type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (that Coordinate) InBounds() bool {
	return that.X >= 0 && that.X < BoardSize && that.Y >= 0 && that.Y < BoardSize
}

// Board is the 9x9 playing field. Cells are indexed [y][x] and each
// holds a stack of at most MaxStackHeight pieces.
type Board struct {
	Cells [BoardSize][BoardSize]Stack `json:"cells"`
}

func NewBoard() Board {
	return Board{}
}

func (that *Board) At(c Coordinate) Stack {
	return that.Cells[c.Y][c.X]
}

func (that *Board) Top(c Coordinate) (Piece, bool) {
	return that.Cells[c.Y][c.X].Top()
}

// Push places a piece on top of the stack at c. The caller is expected
// to have checked MaxStackHeight beforehand.
func (that *Board) Push(c Coordinate, piece Piece) {
	that.Cells[c.Y][c.X] = append(that.Cells[c.Y][c.X], piece)
}

// Pop removes and returns the top piece of the stack at c.
func (that *Board) Pop(c Coordinate) (Piece, bool) {
	stack := that.Cells[c.Y][c.X]
	if len(stack) == 0 {
		return Piece{}, false
	}

	piece := stack[len(stack)-1]
	rest := stack[:len(stack)-1]
	if len(rest) == 0 {
		rest = nil
	}
	that.Cells[c.Y][c.X] = rest

	return piece, true
}

// Clone returns a deep copy sharing no stack memory with the original.
func (that *Board) Clone() Board {
	var clone Board
	for y := range that.Cells {
		for x := range that.Cells[y] {
			if that.Cells[y][x] == nil {
				continue
			}
			stack := make(Stack, len(that.Cells[y][x]))
			copy(stack, that.Cells[y][x])
			clone.Cells[y][x] = stack
		}
	}
	return clone
}
