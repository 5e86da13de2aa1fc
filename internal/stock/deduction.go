// Package stock holds the carton/piece deduction algorithm shared by the
// delivery-challan create and status-update paths. The algorithm is pure:
// it never touches storage and either returns a complete new counter set or
// an error with the exact shortfall, so callers get all-or-nothing semantics
// for free.
package stock

// Counters is the mutable part of a product's stock record.
type Counters struct {
	AvailableCartons   int
	AvailablePieces    int
	BrokenCartonPieces int
}

// TotalPieces converts the counters to total units for a given carton size.
func (c Counters) TotalPieces(unitsPerCarton int) int {
	return c.AvailableCartons*unitsPerCarton + c.AvailablePieces + c.BrokenCartonPieces
}

// Request describes one issuance. Cartons and Pieces are interpreted per
// IssueType: Carton uses Cartons only, Pieces uses Pieces only, Both uses
// both and validates the piece portion against the cartons remaining after
// the carton portion is taken.
type Request struct {
	Cartons int
	Pieces  int
}

// Result carries the post-deduction counters plus the details needed for the
// movement ledger entry.
type Result struct {
	Counters      Counters
	CartonsBroken int
	PiecesIssued  int // loose pieces issued (excludes whole-carton units)
	CartonsIssued int
}

// Deduct applies an issuance against the current counters.
//
// Carton portion: taken straight from sealed cartons.
// Piece portion: drained in strict priority order, broken-carton pieces
// first, then loose pieces, then by opening sealed cartons one at a time.
// Already-loose stock is always preferred so the number of open cartons does
// not grow unnecessarily.
//
// Availability is checked before anything is modified, so a failed request
// leaves the caller's state meaningful and untouched.
func Deduct(cur Counters, unitsPerCarton int, req Request) (Result, error) {
	if unitsPerCarton <= 0 {
		return Result{}, ErrMissingUnitsPerCarton
	}

	next := cur

	// Carton portion first.
	if req.Cartons > 0 {
		if req.Cartons > next.AvailableCartons {
			return Result{}, &InsufficientCartonStockError{
				Requested: req.Cartons,
				Available: next.AvailableCartons,
			}
		}
		next.AvailableCartons -= req.Cartons
	}

	// Piece portion, validated against the cartons left after the carton
	// portion: a "Both" request cannot break a carton it is also dispatching.
	broken := 0
	if req.Pieces > 0 {
		obtainable := next.BrokenCartonPieces + next.AvailablePieces + next.AvailableCartons*unitsPerCarton
		if req.Pieces > obtainable {
			return Result{}, &InsufficientPieceStockError{
				Requested:  req.Pieces,
				Obtainable: obtainable,
			}
		}

		remaining := req.Pieces

		// 1. Broken-carton remainders.
		if take := min(remaining, next.BrokenCartonPieces); take > 0 {
			next.BrokenCartonPieces -= take
			remaining -= take
		}

		// 2. Loose pieces never tied to a carton.
		if take := min(remaining, next.AvailablePieces); take > 0 {
			next.AvailablePieces -= take
			remaining -= take
		}

		// 3. Open sealed cartons one at a time, draining each break
		// immediately. The leftover of the last break stays in
		// BrokenCartonPieces.
		for remaining > 0 {
			if next.AvailableCartons <= 0 {
				// Unreachable: obtainable was checked above.
				return Result{}, ErrCounterUnderflow
			}
			next.AvailableCartons--
			next.BrokenCartonPieces += unitsPerCarton
			broken++

			take := min(remaining, next.BrokenCartonPieces)
			next.BrokenCartonPieces -= take
			remaining -= take
		}
	}

	if next.AvailableCartons < 0 || next.AvailablePieces < 0 || next.BrokenCartonPieces < 0 {
		// Hard invariant: a correct drain can never go negative. Surfacing
		// the error instead of clamping keeps the inventory identity honest.
		return Result{}, ErrCounterUnderflow
	}

	return Result{
		Counters:      next,
		CartonsBroken: broken,
		PiecesIssued:  req.Pieces,
		CartonsIssued: req.Cartons,
	}, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
