package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  *Expression
	}{
		{
			name:  "empty query",
			input: "",
			want:  &Expression{},
		},
		{
			name:  "simple criterion",
			input: "c:r",
			want:  NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "r"}),
		},
		{
			name:  "longest key wins",
			input: "cmc:3",
			want:  NewExpression(Key{"cmc"}, Operator{":"}, StringToken{Val: "3"}),
		},
		{
			name:  "longest operator wins",
			input: "pow<=2",
			want:  NewExpression(Key{"pow"}, Operator{"<="}, StringToken{Val: "2"}),
		},
		{
			name:  "uppercase is folded",
			input: "T:Creature",
			want:  NewExpression(Key{"t"}, Operator{":"}, StringToken{Val: "creature"}),
		},
		{
			name:  "grouped query",
			input: "(c:r)",
			want: NewExpression(
				NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "r"}),
			),
		},
		{
			name:  "quoted string keeps spaces",
			input: `"quoted string"`,
			want:  NewExpression(StringToken{Val: "quoted string"}),
		},
		{
			name:  "artist search",
			input: `artist:"John Avon"`,
			want:  NewExpression(Key{"artist"}, Operator{":"}, StringToken{Val: "john avon"}),
		},
		{
			name:  "escaped quote",
			input: `o:"say \"hi\""`,
			want:  NewExpression(Key{"o"}, Operator{":"}, StringToken{Val: `say "hi"`}),
		},
		{
			name:  "regex value",
			input: `o:/draw \d cards?/`,
			want:  NewExpression(Key{"o"}, Operator{":"}, StringToken{Val: `draw \d cards?`, Regex: true}),
		},
		{
			name:  "regex with escaped slash",
			input: `o:/1\/2/`,
			want:  NewExpression(Key{"o"}, Operator{":"}, StringToken{Val: `1\/2`, Regex: true}),
		},
		{
			name:  "key without operator is a bare word",
			input: "cmc",
			want:  NewExpression(StringToken{Val: "cmc"}),
		},
		{
			name:  "bare words",
			input: "burst lightning",
			want:  NewExpression(StringToken{Val: "burst"}, StringToken{Val: "lightning"}),
		},
		{
			name:  "words starting with boolean keywords",
			input: "orcish notion android",
			want: NewExpression(
				StringToken{Val: "orcish"}, StringToken{Val: "notion"}, StringToken{Val: "android"},
			),
		},
		{
			name:  "negation prefix",
			input: "-f:pioneer",
			want:  NewExpression(BooleanOperator{"-"}, Key{"f"}, Operator{":"}, StringToken{Val: "pioneer"}),
		},
		{
			name:  "not keyword",
			input: "NOT t:elf",
			want:  NewExpression(BooleanOperator{"not"}, Key{"t"}, Operator{":"}, StringToken{Val: "elf"}),
		},
		{
			name:  "weird spacing",
			input: "  c:r    f:vintage  ",
			want: NewExpression(
				Key{"c"}, Operator{":"}, StringToken{Val: "r"},
				Key{"f"}, Operator{":"}, StringToken{Val: "vintage"},
			),
		},
		{
			name:  "OR between groups",
			input: "(c:r f:vintage) OR (c:b f:legacy)",
			want: NewExpression(
				NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "r"}, Key{"f"}, Operator{":"}, StringToken{Val: "vintage"}),
				BooleanOperator{"or"},
				NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "b"}, Key{"f"}, Operator{":"}, StringToken{Val: "legacy"}),
			),
		},
		{
			name:  "nested groups",
			input: "(c:r OR (t:creature power:3))",
			want: NewExpression(
				NewExpression(
					Key{"c"}, Operator{":"}, StringToken{Val: "r"},
					BooleanOperator{"or"},
					NewExpression(Key{"t"}, Operator{":"}, StringToken{Val: "creature"}, Key{"power"}, Operator{":"}, StringToken{Val: "3"}),
				),
			),
		},
		{
			name:  "unquoted value closed by parenthesis",
			input: "(t:goblin)c:r",
			want: NewExpression(
				NewExpression(Key{"t"}, Operator{":"}, StringToken{Val: "goblin"}),
				Key{"c"}, Operator{":"}, StringToken{Val: "r"},
			),
		},
		{
			name:  "non-ascii value",
			input: "pow:∞",
			want:  NewExpression(Key{"pow"}, Operator{":"}, StringToken{Val: "∞"}),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want.Items, expr.Items)
		})
	}
}

func TestParseComplex(t *testing.T) {
	expr, err := Parse(`(c:r OR c:u) t:creature (power:3 OR toughness:3) -is:digital artist:"john avon"`)
	require.NoError(t, err)
	require.Len(t, expr.Items, 12)

	assert.IsType(t, &Expression{}, expr.Items[0])
	assert.Equal(t, Key{"t"}, expr.Items[1])
	assert.IsType(t, &Expression{}, expr.Items[4])
	assert.Equal(t, BooleanOperator{"-"}, expr.Items[5])
	assert.Equal(t, Key{"is"}, expr.Items[6])
	assert.Equal(t, StringToken{Val: "john avon"}, expr.Items[11])

	stats := expr.Items[4].(*Expression)
	require.Len(t, stats.Items, 7)
	assert.Equal(t, Key{"power"}, stats.Items[0])
	assert.Equal(t, Key{"toughness"}, stats.Items[4])
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"open paren", "("},
		{"close paren", ")"},
		{"unclosed group", "((c:r)"},
		{"extra close", "(c:r))"},
		{"unclosed nested group", "(c:r (t:creature)"},
		{"unclosed quote", `"unclosed quote`},
		{"unclosed quoted value", `o:"draw`},
		{"unclosed regex", "o:/draw"},
		{"dangling operator", "c:"},
		{"empty value", "c: r"},
		{"empty value before paren", "(c:)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSearch))
			assert.False(t, errors.Is(err, ErrInvalidExpression))

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.input, se.Query)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("c:r )")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Pos)
	assert.Contains(t, se.Error(), "unexpected closing parenthesis")
}

func TestParseErrorPositionAfterCaseChange(t *testing.T) {
	// Lowercasing İ grows it from two bytes to three.
	cases := []struct {
		name  string
		input string
		at    string
	}{
		{"mid query", "İİ )", ")"},
		{"end of query", `o:"İİ`, ""},
		{"unclosed group", "(İ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, strings.ToLower(tc.input), se.Query)
			require.LessOrEqual(t, se.Pos, len(se.Query))
			if tc.at == "" {
				assert.Equal(t, len(se.Query), se.Pos)
			} else {
				assert.Equal(t, tc.at, se.Query[se.Pos:se.Pos+len(tc.at)])
			}
		})
	}
}

func TestMatchKey(t *testing.T) {
	assert.Equal(t, "cmc", matchKey("cmc:3"))
	assert.Equal(t, "c", matchKey("c:r"))
	assert.Equal(t, "color", matchKey("color=rg"))
	assert.Equal(t, "power", matchKey("power>2"))
	assert.Equal(t, "pow", matchKey("pow>2"))
	assert.Equal(t, "", matchKey("xyz"))
}

func TestMatchCriterion(t *testing.T) {
	assert.True(t, matchCriterion("cmc:3"))
	assert.True(t, matchCriterion("c>=rg"))
	assert.False(t, matchCriterion("cmc"))
	assert.False(t, matchCriterion("angel"))
	assert.False(t, matchCriterion("c :r"))
}

func TestMatchBoolean(t *testing.T) {
	assert.Equal(t, "or", matchBoolean("or c:r"))
	assert.Equal(t, "or", matchBoolean("or"))
	assert.Equal(t, "or", matchBoolean("or(c:r)"))
	assert.Equal(t, "", matchBoolean("orc"))
	assert.Equal(t, "not", matchBoolean("not t:elf"))
	assert.Equal(t, "-", matchBoolean("-t:elf"))
	assert.Equal(t, "and", matchBoolean("and\tc:r"))
}

func TestBooleanOperatorValue(t *testing.T) {
	assert.Equal(t, "not", BooleanOperator{"-"}.Value())
	assert.Equal(t, "or", BooleanOperator{"or"}.Value())
}
