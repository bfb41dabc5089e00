package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bakert/surveilrise/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contains(s string) *StringFilter {
	return &StringFilter{Contains: s, Mode: ModeInsensitive}
}

func colorR() Where { return Where{Colors: &ColorFilter{HasEvery: []string{"R"}}} }
func colorB() Where { return Where{Colors: &ColorFilter{HasEvery: []string{"B"}}} }

func legalIn(format string) Where {
	return Where{Legalities: &LegalityFilter{Some: LegalityWhere{
		Format: EqualsFilter{Equals: format, Mode: ModeInsensitive},
		Legal:  true,
	}}}
}

func TestBuild(t *testing.T) {
	cases := []struct {
		name  string
		input *Expression
		want  Where
	}{
		{
			name:  "simple field-value",
			input: NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "r"}),
			want:  Where{AND: []Where{colorR()}},
		},
		{
			name: "grouped query is flattened",
			input: NewExpression(NewExpression(
				Key{"c"}, Operator{":"}, StringToken{Val: "r"},
				Key{"t"}, Operator{":"}, StringToken{Val: "pirate"},
			)),
			want: Where{AND: []Where{colorR(), {TypeLine: contains("pirate")}}},
		},
		{
			name:  "bare word searches name",
			input: NewExpression(StringToken{Val: "burst"}, StringToken{Val: "lightning"}),
			want:  Where{AND: []Where{{Name: contains("burst")}, {Name: contains("lightning")}}},
		},
		{
			name:  "oracle text",
			input: NewExpression(Key{"o"}, Operator{":"}, StringToken{Val: "draw a card"}),
			want:  Where{AND: []Where{{OracleText: contains("draw a card")}}},
		},
		{
			name:  "oracle regex",
			input: NewExpression(Key{"oracle"}, Operator{":"}, StringToken{Val: `draw \d`, Regex: true}),
			want:  Where{AND: []Where{{OracleText: &StringFilter{Matches: `draw \d`, Mode: ModeInsensitive}}}},
		},
		{
			name:  "format legality",
			input: NewExpression(Key{"f"}, Operator{":"}, StringToken{Val: "pioneer"}),
			want:  Where{AND: []Where{legalIn("pioneer")}},
		},
		{
			name:  "AND keyword is a separator",
			input: NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "r"}, BooleanOperator{"and"}, Key{"f"}, Operator{":"}, StringToken{Val: "vintage"}),
			want:  Where{AND: []Where{colorR(), legalIn("vintage")}},
		},
		{
			name:  "negated criterion",
			input: NewExpression(BooleanOperator{"-"}, Key{"f"}, Operator{":"}, StringToken{Val: "pioneer"}, Key{"c"}, Operator{":"}, StringToken{Val: "r"}),
			want: Where{AND: []Where{
				{NOT: &Where{Legalities: legalIn("pioneer").Legalities}},
				colorR(),
			}},
		},
		{
			name: "negated group",
			input: NewExpression(BooleanOperator{"not"}, NewExpression(
				Key{"c"}, Operator{":"}, StringToken{Val: "r"},
				Key{"c"}, Operator{":"}, StringToken{Val: "b"},
			)),
			want: Where{AND: []Where{
				{NOT: &Where{AND: []Where{colorR(), colorB()}}},
			}},
		},
		{
			name: "group containing OR is kept whole",
			input: NewExpression(
				NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "r"}, BooleanOperator{"or"}, Key{"c"}, Operator{":"}, StringToken{Val: "b"}),
				Key{"t"}, Operator{":"}, StringToken{Val: "creature"},
			),
			want: Where{AND: []Where{
				{OR: []Where{{AND: []Where{colorR()}}, {AND: []Where{colorB()}}}},
				{TypeLine: contains("creature")},
			}},
		},
		{
			name: "OR takes everything on each side",
			input: NewExpression(
				Key{"c"}, Operator{":"}, StringToken{Val: "r"},
				Key{"t"}, Operator{":"}, StringToken{Val: "goblin"},
				BooleanOperator{"or"},
				Key{"c"}, Operator{":"}, StringToken{Val: "b"},
			),
			want: Where{OR: []Where{
				{AND: []Where{colorR(), {TypeLine: contains("goblin")}}},
				{AND: []Where{colorB()}},
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Build(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.Where)
		})
	}
}

func TestCompileOrShortCircuit(t *testing.T) {
	q, err := Compile("(c:r f:vintage) OR (c:b f:legacy)")
	require.NoError(t, err)

	assert.Equal(t, Where{OR: []Where{
		{AND: []Where{colorR(), legalIn("vintage")}},
		{AND: []Where{colorB(), legalIn("legacy")}},
	}}, q.Where)
	assert.Nil(t, q.Include.Printings.Where)
}

func TestCompileNumeric(t *testing.T) {
	cases := []struct {
		input string
		want  Where
	}{
		{"cmc>=3", Where{ManaValue: &NumericFilter{Gte: testutil.Ptr(3.0)}}},
		{"mv:2", Where{ManaValue: &NumericFilter{Equals: testutil.Ptr(2.0)}}},
		{"pow>4", Where{PowerValue: &NumericFilter{Gt: testutil.Ptr(4.0)}}},
		{"power<1", Where{PowerValue: &NumericFilter{Lt: testutil.Ptr(1.0)}}},
		{"tou<=2", Where{ToughnessValue: &NumericFilter{Lte: testutil.Ptr(2.0)}}},
		{"toughness=5", Where{ToughnessValue: &NumericFilter{Equals: testutil.Ptr(5.0)}}},
		{"pow!0", Where{PowerValue: &NumericFilter{Not: testutil.Ptr(0.0)}}},
		{"pow:*", Where{PowerValue: &NumericFilter{Equals: testutil.Ptr(0.0)}}},
		{"pow:1+*", Where{PowerValue: &NumericFilter{Equals: testutil.Ptr(1.0)}}},
		{"pow>abc", Where{PowerValue: &NumericFilter{Gt: testutil.Ptr(0.0)}}},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			q, err := Compile(tc.input)
			require.NoError(t, err)
			assert.Equal(t, Where{AND: []Where{tc.want}}, q.Where)
		})
	}
}

func TestCompileColors(t *testing.T) {
	cases := []struct {
		input string
		want  ColorFilter
	}{
		{"c:r", ColorFilter{HasEvery: []string{"R"}}},
		{"c>=r", ColorFilter{HasEvery: []string{"R"}}},
		{"color:gw", ColorFilter{HasEvery: []string{"W", "G"}}},
		{"c=ur", ColorFilter{Equals: []string{"U", "R"}}},
		{"c=rru", ColorFilter{Equals: []string{"U", "R"}}},
		{"c<=r", ColorFilter{HasSome: []string{"R"}, None: []string{"W", "U", "B", "G"}}},
		{"c<=wubrg", ColorFilter{HasSome: []string{"W", "U", "B", "R", "G"}}},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			q, err := Compile(tc.input)
			require.NoError(t, err)
			require.Len(t, q.Where.AND, 1)
			assert.Equal(t, &tc.want, q.Where.AND[0].Colors)
		})
	}
}

func TestCompileArtistNarrowsPrintings(t *testing.T) {
	q, err := Compile(`artist:"John Avon"`)
	require.NoError(t, err)

	avon := PrintingWhere{Artist: contains("john avon")}
	assert.Equal(t, Where{AND: []Where{{Printings: &PrintingsFilter{Some: avon}}}}, q.Where)
	require.NotNil(t, q.Include)
	assert.Equal(t, &avon, q.Include.Printings.Where)
	assert.Equal(t, []OrderBy{{Field: "releasedAt", Direction: "desc"}}, q.Include.Printings.OrderBy)
}

func TestCompileNarrowingScopes(t *testing.T) {
	avon := PrintingWhere{Artist: contains("avon")}
	guay := PrintingWhere{Artist: contains("guay")}

	cases := []struct {
		name  string
		input string
		want  *PrintingWhere
	}{
		{"no artist", "c:r", nil},
		{"two artists", "a:avon (a:guay)", &PrintingWhere{AND: []PrintingWhere{avon, guay}}},
		{"artist on both sides of OR", "a:avon OR a:guay", &PrintingWhere{OR: []PrintingWhere{avon, guay}}},
		{"artist on one side of OR", "a:avon OR c:r", nil},
		{"negated artist", "-a:avon", nil},
		{"artist next to negation", "a:avon -a:guay", &avon},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Compile(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.Include.Printings.Where)
		})
	}
}

func TestCompileSeparateCallsDoNotShareNarrowing(t *testing.T) {
	_, err := Compile("a:avon")
	require.NoError(t, err)

	q, err := Compile("t:forest")
	require.NoError(t, err)
	assert.Nil(t, q.Include.Printings.Where)
}

func TestBuildIdempotent(t *testing.T) {
	expr, err := Parse(`c:r t:creature -f:pioneer cmc>=3 (o:"draw a card" OR o:"discard a card") a:avon`)
	require.NoError(t, err)

	first, err := Build(expr)
	require.NoError(t, err)
	second, err := Build(expr)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileCriteriaCount(t *testing.T) {
	q, err := Compile(`c:r t:creature (cmc>=3 pow>2) "goblin king"`)
	require.NoError(t, err)
	assert.Len(t, q.Where.AND, 5)
}

func TestCompileEmpty(t *testing.T) {
	q, err := Compile("")
	require.NoError(t, err)
	assert.True(t, q.Where.IsEmpty())
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name  string
		input *Expression
		field string
	}{
		{"unknown field", NewExpression(Key{"rarity"}, Operator{":"}, StringToken{Val: "rare"}), "rarity"},
		{"key without value", NewExpression(Key{"c"}, Operator{":"}), "c"},
		{"key followed by key", NewExpression(Key{"c"}, Key{"t"}, StringToken{Val: "r"}), "c"},
		{"OR first", NewExpression(BooleanOperator{"or"}, StringToken{Val: "x"}), ""},
		{"OR last", NewExpression(StringToken{Val: "x"}, BooleanOperator{"or"}), ""},
		{"AND first", NewExpression(BooleanOperator{"and"}, StringToken{Val: "x"}), ""},
		{"NOT last", NewExpression(StringToken{Val: "x"}, BooleanOperator{"not"}), ""},
		{"NOT NOT", NewExpression(BooleanOperator{"not"}, BooleanOperator{"not"}, StringToken{Val: "x"}), ""},
		{"stray operator", NewExpression(Operator{":"}), ""},
		{"bad color operator", NewExpression(Key{"c"}, Operator{">"}, StringToken{Val: "r"}), "color"},
		{"bad color letter", NewExpression(Key{"c"}, Operator{":"}, StringToken{Val: "x"}), "color"},
		{"bad regex", NewExpression(Key{"o"}, Operator{":"}, StringToken{Val: "(", Regex: true}), "o"},
		{"regex on numeric", NewExpression(Key{"cmc"}, Operator{":"}, StringToken{Val: "3", Regex: true}), "cmc"},
		{"error inside group", NewExpression(NewExpression(Key{"is"}, Operator{":"}, StringToken{Val: "foil"})), "is"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidExpression))
			assert.False(t, errors.Is(err, ErrInvalidSearch))

			var ee *ExpressionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tc.field, ee.Field)
		})
	}
}

func TestQueryJSONShape(t *testing.T) {
	q, err := Compile(`c:r a:avon`)
	require.NoError(t, err)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"where": {"AND": [
			{"colors": {"hasEvery": ["R"]}},
			{"printings": {"some": {"artist": {"contains": "avon", "mode": "insensitive"}}}}
		]},
		"include": {"printings": {
			"where": {"artist": {"contains": "avon", "mode": "insensitive"}},
			"orderBy": [{"releasedAt": "desc"}]
		}}
	}`, string(data))
}
