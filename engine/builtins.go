/* Copyright 2024 RDForge Contributors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rdforge/srl/rdf"
)

// A Builtin is one entry of the built-in function registry: a name, an
// arity range, and an invocation callback.  Adding a built-in never
// touches the evaluator core.
//
// BOUND, IF, COALESCE, and IN are special forms handled by the
// evaluator because they control the evaluation of their arguments.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means variadic
	Fn      func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error)
}

var builtins = map[string]*Builtin{}

func register(b *Builtin) {
	builtins[b.Name] = b
}

// Builtins returns the names of all registered built-ins, for tooling.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	return names
}

// IsBuiltin reports whether name (uppercased) is a registered built-in
// or special form.
func IsBuiltin(name string) bool {
	switch name {
	case "BOUND", "IF", "COALESCE", "IN", "NOT IN":
		return true
	}
	_, have := builtins[name]
	return have
}

// lexicalOf extracts a literal's lexical form.  Non-literals are type
// errors; this is the argument contract of the string built-ins.
func lexicalOf(t rdf.Term) (string, error) {
	if l, is := t.(rdf.Literal); is {
		return l.Lexical, nil
	}
	return "", typeErrorf("expected a literal, got %s", t)
}

func intOf(t rdf.Term) (int64, error) {
	n, ok := asNumeric(t)
	if !ok {
		return 0, typeErrorf("expected a numeric, got %s", t)
	}
	if n.kind == numInteger {
		return n.i, nil
	}
	return int64(n.f), nil
}

func dateTimeOf(t rdf.Term) (time.Time, error) {
	l, is := t.(rdf.Literal)
	if !is || l.Datatype != rdf.XSDDateTime {
		return time.Time{}, typeErrorf("expected an xsd:dateTime, got %s", t)
	}
	return parseDateTime(l.Lexical)
}

// regexFlags translates SPARQL regex flags to Go inline flags.
func regexFlags(flags string) (string, error) {
	var inline string
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline += string(f)
		case 'q':
			// Quoting is handled by the caller.
		default:
			return "", typeErrorf("unsupported regex flag %q", string(f))
		}
	}
	if inline == "" {
		return "", nil
	}
	return "(?" + inline + ")", nil
}

func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	inline, err := regexFlags(flags)
	if err != nil {
		return nil, err
	}
	if strings.ContainsRune(flags, 'q') {
		pattern = regexp.QuoteMeta(pattern)
	}
	re, err := regexp.Compile(inline + pattern)
	if err != nil {
		return nil, typeErrorf("bad regex %q: %v", pattern, err)
	}
	return re, nil
}

// encodeForURI percent-encodes everything except RFC 3986 unreserved
// characters.
func encodeForURI(s string) string {
	var sb strings.Builder
	for _, b := range []byte(s) {
		switch {
		case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9',
			b == '-', b == '_', b == '.', b == '~':
			sb.WriteByte(b)
		default:
			sb.WriteString(fmt.Sprintf("%%%02X", b))
		}
	}
	return sb.String()
}

func hashHex(sum []byte) rdf.Term {
	return rdf.NewString(hex.EncodeToString(sum))
}

func init() {
	// Strings.
	register(&Builtin{Name: "CONCAT", MinArgs: 0, MaxArgs: -1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			var sb strings.Builder
			for _, a := range args {
				s, err := lexicalOf(a)
				if err != nil {
					return nil, err
				}
				sb.WriteString(s)
			}
			return rdf.NewString(sb.String()), nil
		}})
	register(&Builtin{Name: "STRLEN", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			return rdf.NewInteger(int64(len([]rune(s)))), nil
		}})
	register(&Builtin{Name: "SUBSTR", MinArgs: 2, MaxArgs: 3,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			start, err := intOf(args[1])
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			// SPARQL SUBSTR is 1-indexed.
			from := int(start) - 1
			if from < 0 {
				from = 0
			}
			if from > len(runes) {
				from = len(runes)
			}
			to := len(runes)
			if len(args) == 3 {
				length, err := intOf(args[2])
				if err != nil {
					return nil, err
				}
				if t := from + int(length); t < to {
					to = t
				}
				if to < from {
					to = from
				}
			}
			return rdf.NewString(string(runes[from:to])), nil
		}})
	register(&Builtin{Name: "UCASE", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			return rdf.NewString(strings.ToUpper(s)), nil
		}})
	register(&Builtin{Name: "LCASE", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			return rdf.NewString(strings.ToLower(s)), nil
		}})
	register(&Builtin{Name: "STRSTARTS", MinArgs: 2, MaxArgs: 2,
		Fn: stringPredicate(strings.HasPrefix)})
	register(&Builtin{Name: "STRENDS", MinArgs: 2, MaxArgs: 2,
		Fn: stringPredicate(strings.HasSuffix)})
	register(&Builtin{Name: "CONTAINS", MinArgs: 2, MaxArgs: 2,
		Fn: stringPredicate(strings.Contains)})
	register(&Builtin{Name: "STRBEFORE", MinArgs: 2, MaxArgs: 2,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, sub, err := twoStrings(args)
			if err != nil {
				return nil, err
			}
			if i := strings.Index(s, sub); i >= 0 {
				return rdf.NewString(s[:i]), nil
			}
			return rdf.NewString(""), nil
		}})
	register(&Builtin{Name: "STRAFTER", MinArgs: 2, MaxArgs: 2,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, sub, err := twoStrings(args)
			if err != nil {
				return nil, err
			}
			if i := strings.Index(s, sub); i >= 0 {
				return rdf.NewString(s[i+len(sub):]), nil
			}
			return rdf.NewString(""), nil
		}})
	register(&Builtin{Name: "ENCODE_FOR_URI", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			return rdf.NewString(encodeForURI(s)), nil
		}})
	register(&Builtin{Name: "REPLACE", MinArgs: 3, MaxArgs: 4,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			pattern, err := lexicalOf(args[1])
			if err != nil {
				return nil, err
			}
			repl, err := lexicalOf(args[2])
			if err != nil {
				return nil, err
			}
			flags := ""
			if len(args) == 4 {
				if flags, err = lexicalOf(args[3]); err != nil {
					return nil, err
				}
			}
			re, err := compileRegex(pattern, flags)
			if err != nil {
				return nil, err
			}
			// SPARQL uses $n for group references.
			repl = strings.ReplaceAll(repl, "$", "$$")
			repl = regexp.MustCompile(`\$\$(\d)`).ReplaceAllString(repl, "${$1}")
			return rdf.NewString(re.ReplaceAllString(s, repl)), nil
		}})
	register(&Builtin{Name: "REGEX", MinArgs: 2, MaxArgs: 3,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, pattern, err := twoStrings(args[:2])
			if err != nil {
				return nil, err
			}
			flags := ""
			if len(args) == 3 {
				if flags, err = lexicalOf(args[2]); err != nil {
					return nil, err
				}
			}
			re, err := compileRegex(pattern, flags)
			if err != nil {
				return nil, err
			}
			return rdf.NewBoolean(re.MatchString(s)), nil
		}})
	register(&Builtin{Name: "LANGMATCHES", MinArgs: 2, MaxArgs: 2,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			tag, rng, err := twoStrings(args)
			if err != nil {
				return nil, err
			}
			tag = strings.ToLower(tag)
			rng = strings.ToLower(rng)
			if rng == "*" {
				return rdf.NewBoolean(tag != ""), nil
			}
			return rdf.NewBoolean(tag == rng || strings.HasPrefix(tag, rng+"-")), nil
		}})

	// Numerics.
	register(&Builtin{Name: "ABS", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			n, ok := asNumeric(args[0])
			if !ok {
				return nil, typeErrorf("ABS needs a numeric, got %s", args[0])
			}
			if n.i < 0 {
				n.i = -n.i
			}
			n.f = math.Abs(n.f)
			return n.literal(), nil
		}})
	register(&Builtin{Name: "ROUND", MinArgs: 1, MaxArgs: 1, Fn: rounder(math.Round)})
	register(&Builtin{Name: "CEIL", MinArgs: 1, MaxArgs: 1, Fn: rounder(math.Ceil)})
	register(&Builtin{Name: "FLOOR", MinArgs: 1, MaxArgs: 1, Fn: rounder(math.Floor)})
	register(&Builtin{Name: "RAND", MinArgs: 0, MaxArgs: 0,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			return rdf.NewDouble(ctx.random()), nil
		}})

	// Terms.
	register(&Builtin{Name: "STR", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			switch t := args[0].(type) {
			case rdf.IRI:
				return rdf.NewString(string(t)), nil
			case rdf.Literal:
				return rdf.NewString(t.Lexical), nil
			case rdf.Blank:
				return rdf.NewString(string(t)), nil
			}
			return nil, typeErrorf("STR: unsupported term %s", args[0])
		}})
	register(&Builtin{Name: "LANG", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			l, is := args[0].(rdf.Literal)
			if !is {
				return nil, typeErrorf("LANG needs a literal, got %s", args[0])
			}
			return rdf.NewString(l.Lang), nil
		}})
	register(&Builtin{Name: "DATATYPE", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			l, is := args[0].(rdf.Literal)
			if !is {
				return nil, typeErrorf("DATATYPE needs a literal, got %s", args[0])
			}
			if l.Lang != "" {
				return rdf.RDFLangString, nil
			}
			if l.Datatype == "" {
				return rdf.XSDString, nil
			}
			return l.Datatype, nil
		}})
	register(&Builtin{Name: "IRI", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			switch t := args[0].(type) {
			case rdf.IRI:
				return t, nil
			case rdf.Literal:
				return rdf.IRI(t.Lexical), nil
			}
			return nil, typeErrorf("IRI: cannot construct from %s", args[0])
		}})
	register(&Builtin{Name: "URI", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			return builtins["IRI"].Fn(ctx, args)
		}})
	register(&Builtin{Name: "BNODE", MinArgs: 0, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			if len(args) == 1 {
				s, err := lexicalOf(args[0])
				if err != nil {
					return nil, err
				}
				return rdf.Blank(s), nil
			}
			ctx.bnodeSeq++
			return rdf.Blank(fmt.Sprintf("b%d", ctx.bnodeSeq)), nil
		}})
	register(&Builtin{Name: "STRDT", MinArgs: 2, MaxArgs: 2,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			lex, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			dt, is := args[1].(rdf.IRI)
			if !is {
				return nil, typeErrorf("STRDT needs an IRI datatype, got %s", args[1])
			}
			return rdf.NewTyped(lex, dt), nil
		}})
	register(&Builtin{Name: "STRLANG", MinArgs: 2, MaxArgs: 2,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			lex, tag, err := twoStrings(args)
			if err != nil {
				return nil, err
			}
			if tag == "" {
				return nil, typeErrorf("STRLANG: empty language tag")
			}
			return rdf.NewLangString(lex, tag), nil
		}})
	register(&Builtin{Name: "ISIRI", MinArgs: 1, MaxArgs: 1, Fn: kindPredicate(func(t rdf.Term) bool {
		_, is := t.(rdf.IRI)
		return is
	})})
	register(&Builtin{Name: "ISURI", MinArgs: 1, MaxArgs: 1, Fn: kindPredicate(func(t rdf.Term) bool {
		_, is := t.(rdf.IRI)
		return is
	})})
	register(&Builtin{Name: "ISBLANK", MinArgs: 1, MaxArgs: 1, Fn: kindPredicate(func(t rdf.Term) bool {
		_, is := t.(rdf.Blank)
		return is
	})})
	register(&Builtin{Name: "ISLITERAL", MinArgs: 1, MaxArgs: 1, Fn: kindPredicate(func(t rdf.Term) bool {
		_, is := t.(rdf.Literal)
		return is
	})})
	register(&Builtin{Name: "ISNUMERIC", MinArgs: 1, MaxArgs: 1, Fn: kindPredicate(func(t rdf.Term) bool {
		_, is := asNumeric(t)
		return is
	})})
	register(&Builtin{Name: "SAMETERM", MinArgs: 2, MaxArgs: 2,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			return rdf.NewBoolean(args[0] == args[1]), nil
		}})

	// Dates and times.
	register(&Builtin{Name: "NOW", MinArgs: 0, MaxArgs: 0,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			return rdf.NewTyped(ctx.Now.Format(time.RFC3339), rdf.XSDDateTime), nil
		}})
	register(&Builtin{Name: "YEAR", MinArgs: 1, MaxArgs: 1, Fn: dateField(func(t time.Time) int64 { return int64(t.Year()) })})
	register(&Builtin{Name: "MONTH", MinArgs: 1, MaxArgs: 1, Fn: dateField(func(t time.Time) int64 { return int64(t.Month()) })})
	register(&Builtin{Name: "DAY", MinArgs: 1, MaxArgs: 1, Fn: dateField(func(t time.Time) int64 { return int64(t.Day()) })})
	register(&Builtin{Name: "HOURS", MinArgs: 1, MaxArgs: 1, Fn: dateField(func(t time.Time) int64 { return int64(t.Hour()) })})
	register(&Builtin{Name: "MINUTES", MinArgs: 1, MaxArgs: 1, Fn: dateField(func(t time.Time) int64 { return int64(t.Minute()) })})
	register(&Builtin{Name: "SECONDS", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			t, err := dateTimeOf(args[0])
			if err != nil {
				return nil, err
			}
			secs := float64(t.Second()) + float64(t.Nanosecond())/1e9
			return rdf.NewDecimal(secs), nil
		}})
	register(&Builtin{Name: "TIMEZONE", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			t, err := dateTimeOf(args[0])
			if err != nil {
				return nil, err
			}
			_, offset := t.Zone()
			return rdf.NewTyped(dayTimeDuration(offset), rdf.XSDDayTimeDuration), nil
		}})
	register(&Builtin{Name: "TZ", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			t, err := dateTimeOf(args[0])
			if err != nil {
				return nil, err
			}
			_, offset := t.Zone()
			if offset == 0 {
				return rdf.NewString("Z"), nil
			}
			sign := "+"
			if offset < 0 {
				sign = "-"
				offset = -offset
			}
			return rdf.NewString(fmt.Sprintf("%s%02d:%02d", sign, offset/3600, offset%3600/60)), nil
		}})

	// Hashes.
	register(&Builtin{Name: "MD5", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			sum := md5.Sum([]byte(s))
			return hashHex(sum[:]), nil
		}})
	register(&Builtin{Name: "SHA1", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			sum := sha1.Sum([]byte(s))
			return hashHex(sum[:]), nil
		}})
	register(&Builtin{Name: "SHA256", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			sum := sha256.Sum256([]byte(s))
			return hashHex(sum[:]), nil
		}})
	register(&Builtin{Name: "SHA384", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			sum := sha512.Sum384([]byte(s))
			return hashHex(sum[:]), nil
		}})
	register(&Builtin{Name: "SHA512", MinArgs: 1, MaxArgs: 1,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			s, err := lexicalOf(args[0])
			if err != nil {
				return nil, err
			}
			sum := sha512.Sum512([]byte(s))
			return hashHex(sum[:]), nil
		}})

	// Identifiers.
	register(&Builtin{Name: "UUID", MinArgs: 0, MaxArgs: 0,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			return rdf.IRI("urn:uuid:" + uuid.NewString()), nil
		}})
	register(&Builtin{Name: "STRUUID", MinArgs: 0, MaxArgs: 0,
		Fn: func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
			return rdf.NewString(uuid.NewString()), nil
		}})
}

func stringPredicate(pred func(s, sub string) bool) func(*EvalContext, []rdf.Term) (rdf.Term, error) {
	return func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
		s, sub, err := twoStrings(args)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(pred(s, sub)), nil
	}
}

func kindPredicate(pred func(rdf.Term) bool) func(*EvalContext, []rdf.Term) (rdf.Term, error) {
	return func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
		return rdf.NewBoolean(pred(args[0])), nil
	}
}

func rounder(f func(float64) float64) func(*EvalContext, []rdf.Term) (rdf.Term, error) {
	return func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
		n, ok := asNumeric(args[0])
		if !ok {
			return nil, typeErrorf("expected a numeric, got %s", args[0])
		}
		if n.kind == numInteger {
			return rdf.NewInteger(n.i), nil
		}
		return rdf.NewInteger(int64(f(n.f))), nil
	}
}

func twoStrings(args []rdf.Term) (string, string, error) {
	a, err := lexicalOf(args[0])
	if err != nil {
		return "", "", err
	}
	b, err := lexicalOf(args[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func dateField(f func(time.Time) int64) func(*EvalContext, []rdf.Term) (rdf.Term, error) {
	return func(ctx *EvalContext, args []rdf.Term) (rdf.Term, error) {
		t, err := dateTimeOf(args[0])
		if err != nil {
			return nil, err
		}
		return rdf.NewInteger(f(t)), nil
	}
}

func dayTimeDuration(offsetSeconds int) string {
	if offsetSeconds == 0 {
		return "PT0S"
	}
	sign := ""
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	h := offsetSeconds / 3600
	m := offsetSeconds % 3600 / 60
	if m == 0 {
		return fmt.Sprintf("%sPT%dH", sign, h)
	}
	return fmt.Sprintf("%sPT%dH%dM", sign, h, m)
}
