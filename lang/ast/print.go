package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dynexpr/dynexpr/lang/token"
)

// Print renders the tree back to canonical expression text. The output
// reparses to an equivalent tree: parentheses are inserted wherever
// operator precedence requires them.
func Print(n Node) string {
	var sb strings.Builder

	printNode(&sb, n, 0)

	return sb.String()
}

// Operator precedence levels, low to high. Postfix and primary forms never
// need wrapping.
const (
	precAssign = iota + 1
	precConditional
	precCoalesce
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var binaryPrec = map[token.Kind]int{
	token.Coalesce:     precCoalesce,
	token.OrOr:         precOr,
	token.AndAnd:       precAnd,
	token.Pipe:         precBitOr,
	token.Caret:        precBitXor,
	token.Amp:          precBitAnd,
	token.Equal:        precEquality,
	token.NotEqual:     precEquality,
	token.Less:         precRelational,
	token.LessEqual:    precRelational,
	token.Greater:      precRelational,
	token.GreaterEqual: precRelational,
	token.Shl:          precShift,
	token.Shr:          precShift,
	token.Plus:         precAdditive,
	token.Minus:        precAdditive,
	token.Star:         precMultiplicative,
	token.Slash:        precMultiplicative,
	token.Percent:      precMultiplicative,
}

// prec returns the precedence level at which a node binds.
func prec(n Node) int {
	switch v := n.(type) {
	case *Assign:
		return precAssign
	case *Conditional:
		return precConditional
	case *Binary:
		return binaryPrec[v.Op]
	case *Unary:
		return precUnary
	case *Convert:
		if v.Explicit {
			return precUnary
		}

		return prec(v.Operand)
	case *Is, *As:
		return precRelational
	default:
		return precPostfix
	}
}

// printChild renders a child node, parenthesising when it binds looser
// than the surrounding context requires.
func printChild(sb *strings.Builder, n Node, minPrec int) {
	if prec(n) < minPrec {
		sb.WriteByte('(')
		printNode(sb, n, 0)
		sb.WriteByte(')')

		return
	}

	printNode(sb, n, minPrec)
}

//nolint:gocyclo // one arm per node kind
func printNode(sb *strings.Builder, n Node, minPrec int) {
	switch v := n.(type) {
	case *Constant:
		printConstant(sb, v)

	case *Param:
		sb.WriteString(v.Name)

	case *TypeRef:
		sb.WriteString(v.Alias)

	case *TypeOf:
		sb.WriteString("typeof(")
		sb.WriteString(v.Target.String())
		sb.WriteByte(')')

	case *Member:
		printChild(sb, v.Target, precPostfix)
		sb.WriteByte('.')
		sb.WriteString(v.Name)

	case *DynamicGet:
		printChild(sb, v.Target, precPostfix)
		sb.WriteByte('.')
		sb.WriteString(v.Name)

	case *MethodCall:
		printChild(sb, v.Target, precPostfix)
		sb.WriteByte('.')
		sb.WriteString(v.Method.Name)
		printArgs(sb, v.Args)

	case *DynamicCall:
		printChild(sb, v.Target, precPostfix)
		sb.WriteByte('.')
		sb.WriteString(v.Name)
		printArgs(sb, v.Args)

	case *StaticCall:
		sb.WriteString(v.Name)
		printArgs(sb, v.Args)

	case *Call:
		printChild(sb, v.Callee, precPostfix)
		printArgs(sb, v.Args)

	case *Index:
		printChild(sb, v.Target, precPostfix)
		sb.WriteByte('[')
		printNode(sb, v.Key, 0)
		sb.WriteByte(']')

	case *Binary:
		p := binaryPrec[v.Op]

		printChild(sb, v.Left, p)
		sb.WriteByte(' ')
		sb.WriteString(v.Op.String())
		sb.WriteByte(' ')
		printChild(sb, v.Right, p+1)

	case *Unary:
		sb.WriteString(v.Op.String())
		printChild(sb, v.Operand, precUnary)

	case *Conditional:
		printChild(sb, v.Cond, precCoalesce)
		sb.WriteString(" ? ")
		printChild(sb, v.Then, precConditional)
		sb.WriteString(" : ")
		printChild(sb, v.Else, precConditional)

	case *Convert:
		if !v.Explicit {
			// Implicit conversions are invisible in source form.
			printNode(sb, v.Operand, minPrec)

			return
		}

		sb.WriteByte('(')
		sb.WriteString(v.T.String())
		sb.WriteByte(')')
		printChild(sb, v.Operand, precUnary)

	case *Is:
		printChild(sb, v.Operand, precRelational)
		sb.WriteString(" is ")
		sb.WriteString(v.Target.String())

	case *As:
		printChild(sb, v.Operand, precRelational)
		sb.WriteString(" as ")
		sb.WriteString(v.Target.String())

	case *Assign:
		printChild(sb, v.Target, precConditional)
		sb.WriteString(" = ")
		printChild(sb, v.Value, precAssign)

	case *Lambda:
		printNode(sb, v.Body, minPrec)

	default:
		fmt.Fprintf(sb, "/*%T*/", n)
	}
}

func printArgs(sb *strings.Builder, args []Node) {
	sb.WriteByte('(')

	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}

		printNode(sb, a, 0)
	}

	sb.WriteByte(')')
}

func printConstant(sb *strings.Builder, c *Constant) {
	switch v := c.Value.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	case string:
		sb.WriteString(strconv.Quote(v))
	case rune:
		sb.WriteString(strconv.QuoteRune(v))
	default:
		fmt.Fprintf(sb, "%v", v)
	}
}
