package config

import "time"

const SourceFileExt = ".slur"

// Type names used by the printed type syntax
const (
	FixNumTypeName   = "FixNum"
	RealTypeName     = "Real"
	SymbolTypeName   = "Symbol"
	StringTypeName   = "String"
	TrueTypeName     = "True"
	NullTypeName     = "Null"
	BoolTypeName     = "Bool"
	MaybeTypeName    = "Maybe"
	ConsTypeName     = "Cons"
	ListTypeName     = "List"
	FunctionTypeName = "->"
)

// Special form names
const (
	IfForm     = "if"
	CondForm   = "cond"
	LetForm    = "let"
	LetStar    = "let*"
	LabelsForm = "labels"
	DefineForm = "define"
	LambdaForm = "lambda"
	QuoteForm  = "quote"
	AndForm    = "and"
	OrForm     = "or"
)

// Built-in function names
const (
	ConsFuncName = "cons"
	CarFuncName  = "car"
	CdrFuncName  = "cdr"
	ListFuncName = "list"
	NotFuncName  = "not"
)

// Reader tokens
const (
	TrueLiteral = "#t"
	NullLiteral = "()"
	RestMarker  = "."
)

// Names generated for expressed genes
const (
	TargetChromosomeName     = "crTarget"
	ChromosomePrefix         = "cr"
	AddedChromosomePrefix    = "crA_"
	AddedTargetPrefix        = "crT_"
	LambdaPrefix             = "l"
	FunctionParameterInfix   = "p"
	DemaybeBindingPrefix     = "dm_"
	PassMaybeBindingPrefix   = "pm_"
	GeneratedNameRandomChars = 5
)

const (
	// MaxEvalDepth bounds nested evaluation of one run.
	MaxEvalDepth = 10000

	// DefaultBuildDepth is the recursion allowance of a gene build.
	DefaultBuildDepth = 5

	// MaxWatchdogPoll caps the evaluator watchdog interval.
	MaxWatchdogPoll = 5 * time.Second

	// EvaluatorChunk is the largest number of tasks a worker takes at once.
	EvaluatorChunk = 5

	// FailedIterationScore is recorded for an iteration whose run failed.
	FailedIterationScore = -1.0

	// ExpressionPenalty multiplies the iteration count for genomes that
	// cannot be expressed.
	ExpressionPenalty = -2.0
)
