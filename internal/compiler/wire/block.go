package wire

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/irgen"
)

// stmt is an op with its nested blocks resolved
type stmt struct {
	op   irgen.Op
	body []stmt // NumFor, GenFor, Block
	arms []arm  // If
}

// arm is one branch of an If. Else arms have a nil cond.
type arm struct {
	cond irgen.Expr
	body []stmt
}

// structure turns a flat op list into nested statements
func structure(ops []irgen.Op) ([]stmt, error) {
	s := &structurer{ops: ops}
	body, err := s.block()
	if err != nil {
		return nil, err
	}
	if s.pos < len(ops) {
		return nil, fmt.Errorf("unexpected %T at op %d", ops[s.pos], s.pos)
	}
	return body, nil
}

type structurer struct {
	ops []irgen.Op
	pos int
}

func (s *structurer) block() ([]stmt, error) {
	var out []stmt
	for s.pos < len(s.ops) {
		op := s.ops[s.pos]
		switch op := op.(type) {
		case irgen.End, irgen.Else, irgen.ElseIf:
			return out, nil

		case irgen.NumFor, irgen.GenFor, irgen.Block:
			s.pos++
			body, err := s.block()
			if err != nil {
				return nil, err
			}
			if err := s.end(); err != nil {
				return nil, err
			}
			out = append(out, stmt{op: op, body: body})

		case irgen.If:
			s.pos++
			arms, err := s.arms(op.Cond)
			if err != nil {
				return nil, err
			}
			out = append(out, stmt{op: op, arms: arms})

		default:
			s.pos++
			out = append(out, stmt{op: op})
		}
	}
	return out, nil
}

func (s *structurer) arms(cond irgen.Expr) ([]arm, error) {
	var arms []arm
	for {
		body, err := s.block()
		if err != nil {
			return nil, err
		}
		arms = append(arms, arm{cond: cond, body: body})

		if s.pos >= len(s.ops) {
			return nil, fmt.Errorf("unterminated if")
		}
		switch op := s.ops[s.pos].(type) {
		case irgen.End:
			s.pos++
			return arms, nil
		case irgen.ElseIf:
			cond = op.Cond
		case irgen.Else:
			cond = nil
		}
		s.pos++
	}
}

func (s *structurer) end() error {
	if s.pos >= len(s.ops) {
		return fmt.Errorf("unterminated block")
	}
	if _, ok := s.ops[s.pos].(irgen.End); !ok {
		return fmt.Errorf("expected end, got %T", s.ops[s.pos])
	}
	s.pos++
	return nil
}
