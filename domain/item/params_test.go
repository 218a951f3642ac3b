package item

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/palette-xyz/goapi/base/ptr"
	"github.com/palette-xyz/goapi/domain"
)

type paramsSuite struct {
	suite.Suite
}

func (s *paramsSuite) TestParseAttrFilters() {
	filters, err := ParseAttrFilters([]string{`{"name":"Fur","values":["Gold","Cream"]}`})
	s.NoError(err)
	s.Equal([]AttributeFilter{{Name: "Fur", Values: []string{"Gold", "Cream"}}}, filters)

	_, err = ParseAttrFilters([]string{`not json`})
	s.ErrorIs(err, domain.ErrBadParamInput)

	_, err = ParseAttrFilters([]string{`{"name":"Fur","values":[]}`})
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *paramsSuite) TestCollectBracketForm() {
	q := url.Values{
		"trait[Fur]":        []string{"Gold", "Cream"},
		"trait[Background]": []string{"Zombie"},
		"limit":             []string{"24"},
	}
	filters, err := CollectAttrFilters(nil, nil, q)
	s.NoError(err)
	s.Equal([]AttributeFilter{
		{Name: "Background", Values: []string{"Zombie"}},
		{Name: "Fur", Values: []string{"Gold", "Cream"}},
	}, filters)
}

func (s *paramsSuite) TestCollectDelimitedForm() {
	filters, err := CollectAttrFilters(nil, ptr.String("Fur:Gold|Fur:Cream|Background:Zombie"), nil)
	s.NoError(err)
	s.Equal([]AttributeFilter{
		{Name: "Fur", Values: []string{"Gold", "Cream"}},
		{Name: "Background", Values: []string{"Zombie"}},
	}, filters)
}

func (s *paramsSuite) TestCollectMergesForms() {
	q := url.Values{"trait[Fur]": []string{"Gold"}}
	filters, err := CollectAttrFilters(
		[]string{`{"name":"Fur","values":["Gold","Cream"]}`},
		ptr.String("Hat:Cap"),
		q,
	)
	s.NoError(err)
	s.Equal([]AttributeFilter{
		{Name: "Fur", Values: []string{"Gold", "Cream"}},
		{Name: "Hat", Values: []string{"Cap"}},
	}, filters)
}

func (s *paramsSuite) TestCollectRejectsMalformed() {
	_, err := CollectAttrFilters(nil, ptr.String("FurGold"), nil)
	s.ErrorIs(err, domain.ErrBadParamInput)

	_, err = CollectAttrFilters(nil, ptr.String("Fur:"), nil)
	s.ErrorIs(err, domain.ErrBadParamInput)

	_, err = CollectAttrFilters(nil, nil, url.Values{"trait[]": []string{"Gold"}})
	s.ErrorIs(err, domain.ErrBadParamInput)

	_, err = CollectAttrFilters(nil, nil, url.Values{"trait[Fur]": []string{""}})
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *paramsSuite) TestCollectEmpty() {
	filters, err := CollectAttrFilters(nil, nil, nil)
	s.NoError(err)
	s.Empty(filters)
}

func TestParamsSuite(t *testing.T) {
	suite.Run(t, new(paramsSuite))
}
