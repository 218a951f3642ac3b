package keys

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type keysSuite struct {
	suite.Suite
}

func (s *keysSuite) TestRedisKey() {
	s.Equal("item:0xabc:1", RedisKey(PfxItem, "0xabc", "1"))
	s.Equal("currency", RedisKey(PfxCurrency))
}

func (s *keysSuite) TestGetPrefix() {
	s.Equal("", GetPrefix("single"))
	s.Equal("item", GetPrefix("item:0xabc"))
	s.Equal("item:0xabc", GetPrefix("item:0xabc:1"))
	s.Equal("item:0xabc:1", GetPrefix("item:0xabc:1:extra"))
}

func TestKeysSuite(t *testing.T) {
	suite.Run(t, new(keysSuite))
}
