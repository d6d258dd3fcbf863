package filter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/grister/grist"
)

func testRecords() []grist.Record {
	joined := float64(time.Now().AddDate(0, 0, -10).Unix())
	return []grist.Record{
		{ID: 1, Fields: map[string]any{"Name": "Ada Lovelace", "Age": float64(36), "City": "London", "Email": "ada@x.com", "Joined": joined}},
		{ID: 2, Fields: map[string]any{"Name": "Grace Hopper", "Age": float64(85), "City": "New York", "Email": "", "Joined": float64(0)}},
		{ID: 3, Fields: map[string]any{"Name": "Alan Turing", "Age": float64(41), "City": "London", "Due date": "2024-01-01"}},
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{name: "valid expression", expression: `Age > 30 and includes(City, "lon")`},
		{name: "empty expression", expression: "   ", wantErr: true, errContains: "empty expression"},
		{name: "invalid syntax", expression: `includes(City, "unclosed`, wantErr: true},
		{name: "not boolean", expression: `"text"`, wantErr: true},
		{name: "helper with record", expression: `has("Email") and id > 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var cerr *CompilationError
				assert.True(t, errors.As(err, &cerr))
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, p.Expression())
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		expression string
		expected   []int64
	}{
		{`City == "London"`, []int64{1, 3}},
		{`Age >= 40 and Age < 90`, []int64{2, 3}},
		{`includes(Name, "HOPPER")`, []int64{2}},
		{`has("Email")`, []int64{1}},
		{`not has("Email")`, []int64{2, 3}},
		{`fields["Due date"] == "2024-01-01"`, []int64{3}},
		{`id in [1, 3]`, []int64{1, 3}},
		{`Name startsWith "A" and City in ["London", "Paris"]`, []int64{1, 3}},
		{`Joined > 0 and daysSince(Joined) < 30`, []int64{1}},
		{`Joined < epoch("2000-01-01")`, []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			p, err := Compile(tt.expression)
			require.NoError(t, err)

			var got []int64
			for _, r := range testRecords() {
				ok, err := p.Match(r)
				if err != nil {
					continue
				}
				if ok {
					got = append(got, r.ID)
				}
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMatchError(t *testing.T) {
	p, err := Compile(`Joined > 0`)
	require.NoError(t, err)

	_, err = p.Match(testRecords()[2])
	var eerr *EvaluationError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, int64(3), eerr.RecordID)
}

func TestEvaluatorRecords(t *testing.T) {
	p, err := Compile(`Joined > 0`)
	require.NoError(t, err)

	got, err := NewEvaluator().Records(context.Background(), p, testRecords())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	_, err = NewEvaluator(WithStrict(true)).Records(context.Background(), p, testRecords())
	assert.Error(t, err, "strict mode fails on the record without the column")
}

func TestEvaluatorConcurrentKeepsOrder(t *testing.T) {
	records := make([]grist.Record, 1000)
	for i := range records {
		records[i] = grist.Record{ID: int64(i + 1), Fields: map[string]any{"N": float64(i)}}
	}

	p, err := Compile(`int(N) % 3 == 0`)
	require.NoError(t, err)

	e := NewEvaluator(WithWorkers(4), WithBatchSize(64))
	got, err := e.Records(context.Background(), p, records)
	require.NoError(t, err)
	require.Len(t, got, 334)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].ID, got[i].ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Records(ctx, p, records)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompilerCache(t *testing.T) {
	c := NewCompiler(WithCache(2))
	first, err := c.Compile("Age > 1")
	require.NoError(t, err)
	again, err := c.Compile(" Age > 1 ")
	require.NoError(t, err)
	assert.Same(t, first, again)

	for i := range 3 {
		_, err := c.Compile(fmt.Sprintf("Age > %d", i+2))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.cache.Len())

	evicted, err := c.Compile("Age > 1")
	require.NoError(t, err)
	assert.NotSame(t, first, evicted)
}

func TestCustomFunctions(t *testing.T) {
	c := NewCompiler(WithFunctions(map[string]any{
		"adult": func(age float64) bool { return age >= 18 },
	}))
	p, err := c.Compile(`adult(Age)`)
	require.NoError(t, err)

	ok, err := p.Match(grist.Record{ID: 1, Fields: map[string]any{"Age": float64(20)}})
	require.NoError(t, err)
	assert.True(t, ok)
}
