package search

import "errors"

var (
	ErrMixedQuery        = errors.New("query mixes bool and term shapes")
	ErrShouldWithoutBool = errors.New("should clause added before bool query")
	ErrEmptyQuery        = errors.New("query has no shape")
)

// Clause is one leaf query, e.g. {"match": {"name": "phở"}}.
type Clause map[string]map[string]any

func Match(field string, value any) Clause {
	return Clause{"match": {field: value}}
}

func MatchPhrase(field string, value any) Clause {
	return Clause{"match_phrase": {field: value}}
}

// Query is the request body sent to _search.
type Query map[string]any

type shape int

const (
	shapeNone shape = iota
	shapeBool
	shapeTerm
)

// QueryBuilder collects a bool/should or a term query. It is serialized only
// by Build; the first construction error is kept and returned there.
type QueryBuilder struct {
	shape     shape
	should    []Clause
	termField string
	termValue any
	err       error
}

func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

// Bool starts an empty bool query, discarding clauses added before.
func (b *QueryBuilder) Bool() *QueryBuilder {
	if b.shape == shapeTerm {
		b.fail(ErrMixedQuery)
	}
	b.shape = shapeBool
	b.should = nil
	return b
}

// Should appends clauses to the bool query's should list in call order.
func (b *QueryBuilder) Should(clauses ...Clause) *QueryBuilder {
	if b.shape != shapeBool {
		b.fail(ErrShouldWithoutBool)
		return b
	}
	b.should = append(b.should, clauses...)
	return b
}

func (b *QueryBuilder) Term(field string, value any) *QueryBuilder {
	if b.shape == shapeBool {
		b.fail(ErrMixedQuery)
	}
	b.shape = shapeTerm
	b.termField = field
	b.termValue = value
	return b
}

func (b *QueryBuilder) Build() (Query, error) {
	if b.err != nil {
		return nil, b.err
	}

	switch b.shape {
	case shapeBool:
		boolBody := map[string]any{}
		if len(b.should) > 0 {
			should := make([]Clause, len(b.should))
			copy(should, b.should)
			boolBody["should"] = should
		}
		return Query{"query": map[string]any{"bool": boolBody}}, nil
	case shapeTerm:
		return Query{"query": map[string]any{
			"term": map[string]any{b.termField: b.termValue},
		}}, nil
	}
	return nil, ErrEmptyQuery
}

func (b *QueryBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// TextQuery matches free text against the name as a phrase and against tag,
// address and menu line names.
func TextQuery(text string) (Query, error) {
	return NewQuery().
		Bool().
		Should(
			MatchPhrase("name", text),
			Match("tag", text),
			Match("address", text),
			Match("menu.name", text),
		).
		Build()
}
