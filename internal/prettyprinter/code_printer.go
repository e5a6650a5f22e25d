// Package prettyprinter lays out s-expressions within a line width.
package prettyprinter

import (
	"bytes"
	"strings"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/genes"
)

const DefaultWidth = 80

// Forms whose first argument stays on the opening line and whose body is
// indented by bodyIndent rather than aligned.
var bodyForms = map[string]bool{
	config.DefineForm: true,
	config.LambdaForm: true,
	config.LetForm:    true,
	config.LetStar:    true,
	config.LabelsForm: true,
}

const bodyIndent = 2

type CodePrinter struct {
	buf       bytes.Buffer
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{lineWidth: DefaultWidth}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{lineWidth: width}
}

func (p *CodePrinter) SetLineWidth(width int) {
	p.lineWidth = width
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		p.column = len(s) - i - 1
	} else {
		p.column += len(s)
	}
}

// newline starts a line indented to column.
func (p *CodePrinter) newline(column int) {
	p.buf.WriteByte('\n')
	p.buf.WriteString(strings.Repeat(" ", column))
	p.column = column
}

func (p *CodePrinter) fits(s string) bool {
	return p.lineWidth <= 0 || p.column+len(s) <= p.lineWidth
}

// Print lays out o starting at the current column.
func (p *CodePrinter) Print(o evaluator.Object) {
	flat := o.String()
	items, ok := elements(o)
	if p.fits(flat) || !ok || len(items) < 2 {
		p.write(flat)
		return
	}

	open := p.column
	p.write("(")
	head, args := items[0], items[1:]
	p.Print(head)
	p.write(" ")
	if sym, isSym := head.(evaluator.Symbol); isSym && bodyForms[string(sym)] {
		p.Print(args[0])
		for _, arg := range args[1:] {
			p.newline(open + bodyIndent)
			p.Print(arg)
		}
	} else {
		align := p.column
		p.Print(args[0])
		for _, arg := range args[1:] {
			p.newline(align)
			p.Print(arg)
		}
	}
	p.write(")")
}

// elements lists the items of a proper list. Quoted forms are kept whole.
func elements(o evaluator.Object) ([]evaluator.Object, bool) {
	c, ok := o.(*evaluator.Cons)
	if !ok {
		return nil, false
	}
	if sym, isSym := c.Car.(evaluator.Symbol); isSym && string(sym) == config.QuoteForm {
		return nil, false
	}
	var items []evaluator.Object
	for {
		items = append(items, c.Car)
		if evaluator.IsNull(c.Cdr) {
			return items, true
		}
		if c, ok = c.Cdr.(*evaluator.Cons); !ok {
			return nil, false
		}
	}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

// Format lays out o within width columns.
func Format(o evaluator.Object, width int) string {
	p := NewCodePrinterWithWidth(width)
	p.Print(o)
	return p.String()
}

// Program lays out every phene as "name = form", one per line.
func Program(phenome []genes.Phene, width int) string {
	p := NewCodePrinterWithWidth(width)
	for _, ph := range phenome {
		p.write(ph.Name + " = ")
		p.Print(ph.Form)
		p.write("\n")
	}
	return p.String()
}
