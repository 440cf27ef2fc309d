package gungi

import (
	"fmt"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
)

// Refinements of apperror.ErrIllegalMove naming the first rule a move
// broke. Checks run in a fixed order, so the same bad move always
// yields the same reason.
var (
	ErrOutOfBounds         = fmt.Errorf("%w: coordinate out of bounds", apperror.ErrIllegalMove)
	ErrOriginEmpty         = fmt.Errorf("%w: origin cell is empty", apperror.ErrIllegalMove)
	ErrNotYourPiece        = fmt.Errorf("%w: top piece at origin belongs to the opponent", apperror.ErrIllegalMove)
	ErrPieceTypeMismatch   = fmt.Errorf("%w: top piece at origin has a different type", apperror.ErrIllegalMove)
	ErrUnreachable         = fmt.Errorf("%w: destination is not reachable by this piece", apperror.ErrIllegalMove)
	ErrPathBlocked         = fmt.Errorf("%w: path to destination is blocked", apperror.ErrIllegalMove)
	ErrStackFull           = fmt.Errorf("%w: destination stack is full", apperror.ErrIllegalMove)
	ErrCaptureFlagMismatch = fmt.Errorf("%w: capture flag does not match the destination", apperror.ErrIllegalMove)
)

// IsLegal reports whether side may play move on board, returning nil
// for a legal move and an ErrIllegalMove refinement otherwise. It
// never mutates the board.
func IsLegal(board *entity.Board, move entity.Move, side entity.Side) error {
	if !move.From.InBounds() || !move.To.InBounds() {
		return ErrOutOfBounds
	}
	if move.From == move.To {
		return ErrUnreachable
	}

	mover, ok := board.Top(move.From)
	if !ok {
		return ErrOriginEmpty
	}
	if mover.Owner != side {
		return ErrNotYourPiece
	}
	if mover.Type != move.PieceType {
		return ErrPieceTypeMismatch
	}

	tier := board.At(move.From).TopTier()
	if err := reachable(board, move.From, move.To, mover.Type, tier, side); err != nil {
		return err
	}

	wantCapture := false
	if target, occupied := board.Top(move.To); occupied {
		if target.Owner == side {
			if board.At(move.To).IsFull() {
				return ErrStackFull
			}
		} else {
			wantCapture = true
		}
	}
	if move.IsCapture != wantCapture {
		return ErrCaptureFlagMismatch
	}

	return nil
}

// reachable walks every ray of the piece from the origin and reports
// whether it lands on the destination, distinguishing a destination
// that lies behind a blocker from one no ray touches at all.
func reachable(board *entity.Board, from, to entity.Coordinate, pieceType entity.PieceType, tier int, side entity.Side) error {
	behindBlocker := false

	for _, ray := range raysFor(pieceType, tier, side) {
		blocked := false
		for step := 1; step <= ray.length; step++ {
			cell := entity.Coordinate{X: from.X + ray.dx*step, Y: from.Y + ray.dy*step}
			if !cell.InBounds() {
				break
			}
			if cell == to {
				if ray.jump || !blocked {
					return nil
				}
				behindBlocker = true
				break
			}
			if !ray.jump && !board.At(cell).IsEmpty() {
				blocked = true
			}
		}
	}

	if behindBlocker {
		return ErrPathBlocked
	}
	return ErrUnreachable
}

// LegalMoves enumerates every legal move for side in a deterministic
// order: origin cells row by row, then the rule table's ray order.
func LegalMoves(board *entity.Board, side entity.Side) []entity.Move {
	var moves []entity.Move

	for y := 0; y < entity.BoardSize; y++ {
		for x := 0; x < entity.BoardSize; x++ {
			from := entity.Coordinate{X: x, Y: y}
			mover, ok := board.Top(from)
			if !ok || mover.Owner != side {
				continue
			}

			tier := board.At(from).TopTier()
			for _, ray := range raysFor(mover.Type, tier, side) {
				for step := 1; step <= ray.length; step++ {
					to := entity.Coordinate{X: from.X + ray.dx*step, Y: from.Y + ray.dy*step}
					if !to.InBounds() {
						break
					}

					target, occupied := board.Top(to)
					if !occupied {
						moves = append(moves, entity.Move{From: from, To: to, PieceType: mover.Type})
						continue
					}

					if target.Owner == side {
						if !board.At(to).IsFull() {
							moves = append(moves, entity.Move{From: from, To: to, PieceType: mover.Type})
						}
					} else {
						moves = append(moves, entity.Move{From: from, To: to, PieceType: mover.Type, IsCapture: true})
					}

					if !ray.jump {
						break
					}
				}
			}
		}
	}

	return moves
}

// HasLegalMove is a short-circuit variant of LegalMoves used for
// stalemate detection after every applied move.
func HasLegalMove(board *entity.Board, side entity.Side) bool {
	for y := 0; y < entity.BoardSize; y++ {
		for x := 0; x < entity.BoardSize; x++ {
			from := entity.Coordinate{X: x, Y: y}
			mover, ok := board.Top(from)
			if !ok || mover.Owner != side {
				continue
			}

			tier := board.At(from).TopTier()
			for _, ray := range raysFor(mover.Type, tier, side) {
				for step := 1; step <= ray.length; step++ {
					to := entity.Coordinate{X: from.X + ray.dx*step, Y: from.Y + ray.dy*step}
					if !to.InBounds() {
						break
					}

					target, occupied := board.Top(to)
					if !occupied {
						return true
					}
					if target.Owner != side {
						return true
					}
					if !board.At(to).IsFull() {
						return true
					}
					if !ray.jump {
						break
					}
				}
			}
		}
	}

	return false
}
