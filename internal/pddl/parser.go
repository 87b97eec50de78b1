package pddl

import "fmt"

// ParseError is a parse/lexical error carrying a source location, matching
// spec.md §6.4's requirement that validation errors are "reported with
// source location."
type ParseError struct {
	Pos     Pos
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parser is a hand-rolled recursive-descent parser over the PDDL subset
// spec.md §6.3 commits to, the same no-parser-generator style the teacher's
// own internal/parser uses for its language.
type Parser struct {
	toks []Token
	pos  int
}

// NewParser builds a Parser over src.
func NewParser(src string) *Parser {
	return &Parser{toks: NewLexer(src).Tokens()}
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errf(format string, args ...any) error {
	return &ParseError{Pos: p.cur().Pos, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.cur().Type != tt {
		return Token{}, p.errf("expected %v, got %q", tt, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) expectSymbol(lower string) error {
	t := p.cur()
	if t.Type != SYMBOL || normalizeLower(t.Lexeme) != lower {
		return p.errf("expected %q, got %q", lower, t.Lexeme)
	}
	p.advance()
	return nil
}

// ParseDomain parses a full "(define (domain ...) ...)" form.
func (p *Parser) ParseDomain() (*Domain, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("define"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("domain"); err != nil {
		return nil, err
	}
	name, err := p.expect(SYMBOL)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	d := &Domain{Name: name.Lexeme, Pos: name.Pos}
	for p.cur().Type == LPAREN {
		if err := p.parseDomainSection(d); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseDomainSection(d *Domain) error {
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	keyword, err := p.expect(SYMBOL)
	if err != nil {
		return err
	}
	switch normalizeLower(keyword.Lexeme) {
	case ":requirements":
		for p.cur().Type == SYMBOL {
			d.Requirements = append(d.Requirements, p.advance().Lexeme)
		}
	case ":types":
		types, err := p.parseTypedList()
		if err != nil {
			return err
		}
		d.Types = types
	case ":constants":
		consts, err := p.parseTypedList()
		if err != nil {
			return err
		}
		d.Constants = consts
	case ":predicates":
		for p.cur().Type == LPAREN {
			pd, err := p.parsePredicateDef()
			if err != nil {
				return err
			}
			d.Predicates = append(d.Predicates, pd)
		}
	case ":action":
		ad, err := p.parseActionDef(keyword.Pos)
		if err != nil {
			return err
		}
		d.Actions = append(d.Actions, ad)
	default:
		// Unknown section (e.g. :functions, :constraints): skipped as a
		// balanced group. No warning is emitted for it.
		if err := p.skipBalanced(); err != nil {
			return err
		}
	}
	_, err = p.expect(RPAREN)
	return err
}

// skipBalanced consumes tokens up to (not including) the RPAREN that closes
// the current section, accounting for nested parens.
func (p *Parser) skipBalanced() error {
	depth := 0
	for {
		switch p.cur().Type {
		case LPAREN:
			depth++
			p.advance()
		case RPAREN:
			if depth == 0 {
				return nil
			}
			depth--
			p.advance()
		case EOF:
			return p.errf("unexpected end of input while skipping unrecognized section")
		default:
			p.advance()
		}
	}
}

// parseTypedList parses a sequence like "?x ?y - block ?z - object" or
// "a b - block c" (trailing names with no "-" get the default type).
func (p *Parser) parseTypedList() ([]TypedName, error) {
	var out []TypedName
	var pending []TypedName
	for p.cur().Type == SYMBOL || p.cur().Type == VARIABLE {
		t := p.advance()
		if t.Type == SYMBOL && t.Lexeme == "-" {
			typeTok, err := p.expect(SYMBOL)
			if err != nil {
				return nil, err
			}
			for i := range pending {
				pending[i].Type = typeTok.Lexeme
			}
			out = append(out, pending...)
			pending = nil
			continue
		}
		pending = append(pending, TypedName{Name: t.Lexeme, Pos: t.Pos})
	}
	out = append(out, pending...)
	return out, nil
}

func (p *Parser) parsePredicateDef() (PredicateDef, error) {
	open, err := p.expect(LPAREN)
	if err != nil {
		return PredicateDef{}, err
	}
	name, err := p.expect(SYMBOL)
	if err != nil {
		return PredicateDef{}, err
	}
	params, err := p.parseTypedList()
	if err != nil {
		return PredicateDef{}, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return PredicateDef{}, err
	}
	return PredicateDef{Name: name.Lexeme, Params: params, Pos: open.Pos}, nil
}

func (p *Parser) parseActionDef(pos Pos) (ActionDef, error) {
	name, err := p.expect(SYMBOL)
	if err != nil {
		return ActionDef{}, err
	}
	ad := ActionDef{Name: name.Lexeme, Pos: pos}
	for p.cur().Type == SYMBOL {
		kw := normalizeLower(p.cur().Lexeme)
		switch kw {
		case ":parameters":
			p.advance()
			if _, err := p.expect(LPAREN); err != nil {
				return ActionDef{}, err
			}
			params, err := p.parseTypedList()
			if err != nil {
				return ActionDef{}, err
			}
			if _, err := p.expect(RPAREN); err != nil {
				return ActionDef{}, err
			}
			ad.Params = params
		case ":precondition":
			p.advance()
			expr, err := p.parseExpr()
			if err != nil {
				return ActionDef{}, err
			}
			ad.Precondition = expr
		case ":effect":
			p.advance()
			expr, err := p.parseExpr()
			if err != nil {
				return ActionDef{}, err
			}
			ad.Effect = expr
		default:
			return ActionDef{}, p.errf("unexpected keyword %q in :action", kw)
		}
	}
	return ad, nil
}

// parseExpr parses one precondition/effect/init/goal expression: an atom,
// or a compound "(and ...)"/"(or ...)"/"(not ...)" form.
func (p *Parser) parseExpr() (Expr, error) {
	open, err := p.expect(LPAREN)
	if err != nil {
		return nil, err
	}
	head, err := p.expect(SYMBOL)
	if err != nil {
		return nil, err
	}
	switch normalizeLower(head.Lexeme) {
	case "and":
		e := &AndExpr{Pos: open.Pos}
		for p.cur().Type == LPAREN {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			e.Args = append(e.Args, arg)
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case "or":
		e := &OrExpr{Pos: open.Pos}
		for p.cur().Type == LPAREN {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			e.Args = append(e.Args, arg)
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case "not":
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &NotExpr{Arg: arg, Pos: open.Pos}, nil
	default:
		a := &AtomExpr{Name: head.Lexeme, Pos: open.Pos}
		for p.cur().Type == SYMBOL || p.cur().Type == VARIABLE {
			t := p.advance()
			a.Args = append(a.Args, Term{IsVariable: t.Type == VARIABLE, Name: t.Lexeme, Pos: t.Pos})
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return a, nil
	}
}

// ParseProblem parses a full "(define (problem ...) ...)" form.
func (p *Parser) ParseProblem() (*Problem, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("define"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("problem"); err != nil {
		return nil, err
	}
	name, err := p.expect(SYMBOL)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	pr := &Problem{Name: name.Lexeme, Pos: name.Pos}
	for p.cur().Type == LPAREN {
		if err := p.parseProblemSection(pr); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return pr, nil
}

func (p *Parser) parseProblemSection(pr *Problem) error {
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	keyword, err := p.expect(SYMBOL)
	if err != nil {
		return err
	}
	switch normalizeLower(keyword.Lexeme) {
	case ":domain":
		dn, err := p.expect(SYMBOL)
		if err != nil {
			return err
		}
		pr.DomainName = dn.Lexeme
	case ":objects":
		objs, err := p.parseTypedList()
		if err != nil {
			return err
		}
		pr.Objects = objs
	case ":init":
		for p.cur().Type == LPAREN {
			expr, err := p.parseExpr()
			if err != nil {
				return err
			}
			switch e := expr.(type) {
			case *AtomExpr:
				pr.Init = append(pr.Init, e)
			case *NotExpr:
				if inner, ok := e.Arg.(*AtomExpr); ok {
					pr.InitNeg = append(pr.InitNeg, inner)
				} else {
					return p.errf("(not ...) in :init must wrap a single atom")
				}
			default:
				return p.errf("only atoms and (not atom) are allowed in :init")
			}
		}
	case ":goal":
		expr, err := p.parseExpr()
		if err != nil {
			return err
		}
		pr.Goal = expr
	default:
		if err := p.skipBalanced(); err != nil {
			return err
		}
	}
	_, err = p.expect(RPAREN)
	return err
}
