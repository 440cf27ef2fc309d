package gungi

import "github.com/agentarena/gungi-backend/internal/entity"

// MaxPlies is the hard ceiling on match length: once the history
// reaches it without a decisive result the game is scored a draw, so
// every match terminates.
const MaxPlies = 400

// slideLength is the longest distance any ray can cover on the board.
const slideLength = entity.BoardSize - 1

// moveRay is one direction a piece may travel: a unit step, how many
// cells the ray covers, and whether the piece leaps over occupied
// cells on the way. Jump rays always have length 1 and land exactly at
// the (dx, dy) offset.
type moveRay struct {
	dx, dy int
	length int
	jump   bool
}

var (
	orthogonalDirs = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalDirs   = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func steps(length int, dirs ...[2]int) []moveRay {
	rays := make([]moveRay, 0, len(dirs))
	for _, dir := range dirs {
		rays = append(rays, moveRay{dx: dir[0], dy: dir[1], length: length})
	}
	return rays
}

func jumps(dirs ...[2]int) []moveRay {
	rays := make([]moveRay, 0, len(dirs))
	for _, dir := range dirs {
		rays = append(rays, moveRay{dx: dir[0], dy: dir[1], length: 1, jump: true})
	}
	return rays
}

// raysFor is the movement rule table, keyed by piece type and tier.
// Forward is owner-relative; most pieces grow stronger the higher they
// sit in a stack.
func raysFor(pieceType entity.PieceType, tier int, side entity.Side) []moveRay {
	if tier < 1 {
		tier = 1
	}
	if tier > entity.MaxStackHeight {
		tier = entity.MaxStackHeight
	}
	fwd := side.Forward()

	switch pieceType {
	case entity.PieceMarshal:
		return steps(1, append(append([][2]int{}, orthogonalDirs...), diagonalDirs...)...)

	case entity.PieceGeneral:
		dirs := append(append([][2]int{}, orthogonalDirs...), [2]int{1, fwd}, [2]int{-1, fwd})
		return steps(tier, dirs...)

	case entity.PieceLieutenant:
		return steps(tier, diagonalDirs...)

	case entity.PieceKnight:
		return jumps([2]int{1, 2 * fwd}, [2]int{-1, 2 * fwd}, [2]int{2, fwd}, [2]int{-2, fwd})

	case entity.PieceLancer:
		return steps(slideLength, [2]int{0, fwd})

	case entity.PieceArcher:
		rays := jumps([2]int{2, 0}, [2]int{-2, 0}, [2]int{0, 2}, [2]int{0, -2})
		rays = append(rays, steps(1, [2]int{1, fwd}, [2]int{-1, fwd})...)
		if tier >= 2 {
			rays = append(rays, jumps([2]int{2, 2}, [2]int{2, -2}, [2]int{-2, 2}, [2]int{-2, -2})...)
		}
		return rays

	case entity.PieceSoldier:
		rays := steps(1, [2]int{0, fwd})
		if tier >= 2 {
			rays = append(rays, steps(1, [2]int{1, fwd}, [2]int{-1, fwd})...)
		}
		if tier >= 3 {
			rays = append(rays, steps(1, [2]int{1, 0}, [2]int{-1, 0})...)
		}
		return rays

	default:
		return nil
	}
}

// PieceValue is the material worth of a piece type, used by agents to
// rank candidate moves. The marshal's value dwarfs everything else
// because losing it loses the match.
func PieceValue(pieceType entity.PieceType) int {
	switch pieceType {
	case entity.PieceMarshal:
		return 1000
	case entity.PieceGeneral:
		return 9
	case entity.PieceLieutenant:
		return 6
	case entity.PieceKnight:
		return 5
	case entity.PieceLancer:
		return 5
	case entity.PieceArcher:
		return 4
	case entity.PieceSoldier:
		return 1
	default:
		return 0
	}
}

var backRank = [entity.BoardSize]entity.PieceType{
	entity.PieceLancer,
	entity.PieceKnight,
	entity.PieceLieutenant,
	entity.PieceGeneral,
	entity.PieceMarshal,
	entity.PieceGeneral,
	entity.PieceLieutenant,
	entity.PieceKnight,
	entity.PieceLancer,
}

var middleRank = [entity.BoardSize]entity.PieceType{
	entity.PieceSoldier,
	entity.PieceArcher,
	entity.PieceSoldier,
	entity.PieceArcher,
	entity.PieceSoldier,
	entity.PieceArcher,
	entity.PieceSoldier,
	entity.PieceArcher,
	entity.PieceSoldier,
}

var frontFiles = []int{0, 2, 4, 6, 8}

// InitialBoard builds the fixed starting arrangement: 23 pieces per
// side on three home rows, mirrored. White occupies rows 0-2, black
// rows 6-8; every piece starts at tier 1.
func InitialBoard() entity.Board {
	board := entity.NewBoard()

	for x := 0; x < entity.BoardSize; x++ {
		board.Push(entity.Coordinate{X: x, Y: 0}, entity.Piece{Type: backRank[x], Owner: entity.SideWhite})
		board.Push(entity.Coordinate{X: x, Y: 1}, entity.Piece{Type: middleRank[x], Owner: entity.SideWhite})

		board.Push(entity.Coordinate{X: x, Y: 8}, entity.Piece{Type: backRank[x], Owner: entity.SideBlack})
		board.Push(entity.Coordinate{X: x, Y: 7}, entity.Piece{Type: middleRank[x], Owner: entity.SideBlack})
	}

	for _, x := range frontFiles {
		board.Push(entity.Coordinate{X: x, Y: 2}, entity.Piece{Type: entity.PieceSoldier, Owner: entity.SideWhite})
		board.Push(entity.Coordinate{X: x, Y: 6}, entity.Piece{Type: entity.PieceSoldier, Owner: entity.SideBlack})
	}

	return board
}
