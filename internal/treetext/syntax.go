// Package treetext reads tree IR written as s-expressions:
//
//	(class Point value)
//	(expr sum (add (ldloc 0) (ldloc 1)))
//	(stmt store (stfld (field Point x i32) (ldarg 0) (const i32 7)))
//
// Parse only checks the syntax and touches no shared state, so files can be
// parsed concurrently. Build resolves a parsed file against an ir.Module.
package treetext

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Pos is a 1-based line and column; columns count runes.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// SExpr is an atom, a string literal or a list.
type SExpr struct {
	Pos    Pos
	Atom   string
	Quoted bool
	List   []*SExpr
	IsList bool
}

// Head returns the leading atom of a list, or "".
func (s *SExpr) Head() string {
	if !s.IsList || len(s.List) == 0 || s.List[0].IsList || s.List[0].Quoted {
		return ""
	}
	return s.List[0].Atom
}

func (s *SExpr) String() string {
	switch {
	case s.IsList:
		parts := make([]string, len(s.List))
		for i, c := range s.List {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case s.Quoted:
		return strconv.Quote(s.Atom)
	default:
		return s.Atom
	}
}

// File is the syntax of one source.
type File struct {
	Name  string
	Forms []*SExpr
}

// Error is a problem at a position of a source.
type Error struct {
	File string
	Pos  Pos
	Msg  string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.File, e.Pos, e.Msg)
}

type scanner struct {
	name string
	src  string
	off  int
	pos  Pos
}

func (s *scanner) errorf(p Pos, format string, args ...any) *Error {
	return &Error{File: s.name, Pos: p, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) peek() (rune, int) {
	if s.off >= len(s.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(s.src[s.off:])
}

func (s *scanner) bump() rune {
	r, n := s.peek()
	s.off += n
	if r == '\n' {
		s.pos.Line++
		s.pos.Col = 1
	} else {
		s.pos.Col++
	}
	return r
}

// skip consumes whitespace and ; comments.
func (s *scanner) skip() {
	for s.off < len(s.src) {
		r, _ := s.peek()
		switch {
		case r == ';':
			for s.off < len(s.src) {
				if s.bump() == '\n' {
					break
				}
			}
		case unicode.IsSpace(r):
			s.bump()
		default:
			return
		}
	}
}

// Parse reads every top-level form of src. Atoms are NFC-normalised.
func Parse(name string, src []byte) (*File, error) {
	if !utf8.Valid(src) {
		return nil, &Error{File: name, Pos: Pos{Line: 1, Col: 1}, Msg: "source is not valid UTF-8"}
	}
	s := &scanner{name: name, src: string(src), pos: Pos{Line: 1, Col: 1}}
	f := &File{Name: name}
	for {
		s.skip()
		if s.off >= len(s.src) {
			return f, nil
		}
		form, err := s.expr()
		if err != nil {
			return nil, err
		}
		if !form.IsList {
			return nil, s.errorf(form.Pos, "top-level %s is not a form", form)
		}
		f.Forms = append(f.Forms, form)
	}
}

func (s *scanner) expr() (*SExpr, error) {
	s.skip()
	start := s.pos
	r, _ := s.peek()
	switch {
	case s.off >= len(s.src):
		return nil, s.errorf(start, "unexpected end of input")
	case r == '(':
		s.bump()
		out := &SExpr{Pos: start, IsList: true}
		for {
			s.skip()
			if s.off >= len(s.src) {
				return nil, s.errorf(start, "unclosed (")
			}
			if r, _ := s.peek(); r == ')' {
				s.bump()
				return out, nil
			}
			child, err := s.expr()
			if err != nil {
				return nil, err
			}
			out.List = append(out.List, child)
		}
	case r == ')':
		return nil, s.errorf(start, "unexpected )")
	case r == '"':
		return s.quoted(start)
	default:
		begin := s.off
		for s.off < len(s.src) {
			r, _ := s.peek()
			if unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' || r == ';' {
				break
			}
			s.bump()
		}
		return &SExpr{Pos: start, Atom: norm.NFC.String(s.src[begin:s.off])}, nil
	}
}

func (s *scanner) quoted(start Pos) (*SExpr, error) {
	begin := s.off
	s.bump()
	for {
		if s.off >= len(s.src) {
			return nil, s.errorf(start, "unterminated string")
		}
		switch s.bump() {
		case '\\':
			if s.off < len(s.src) {
				s.bump()
			}
		case '\n':
			return nil, s.errorf(start, "newline in string")
		case '"':
			text, err := strconv.Unquote(s.src[begin:s.off])
			if err != nil {
				return nil, s.errorf(start, "bad string literal %s", s.src[begin:s.off])
			}
			return &SExpr{Pos: start, Atom: text, Quoted: true}, nil
		}
	}
}
