package domain

import (
	"math/big"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

type SortDir int8

const (
	SortDirAsc  = 1
	SortDirDesc = -1
)

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

func (i TokenId) ToBigInt() (*big.Int, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok {
		return nil, xerrors.Errorf("invalid token id %s", i)
	}
	return id, nil
}

type TimeWindow string

const (
	TimeWindowDay   TimeWindow = "24h"
	TimeWindowWeek  TimeWindow = "7d"
	TimeWindowMonth TimeWindow = "30d"
	TimeWindowAll   TimeWindow = "all"
)

var timeWindowToDuration = map[TimeWindow]time.Duration{
	TimeWindowDay:   1 * 24 * time.Hour,
	TimeWindowWeek:  7 * 24 * time.Hour,
	TimeWindowMonth: 30 * 24 * time.Hour,
	TimeWindowAll:   time.Duration(1<<63 - 1), // max duration
}

func (tw TimeWindow) ToDuration() time.Duration {
	d, ok := timeWindowToDuration[tw]
	if !ok {
		return timeWindowToDuration[TimeWindowDay]
	}
	return d
}

func (tw TimeWindow) IsValid() bool {
	_, ok := timeWindowToDuration[tw]
	return ok
}

func (tw TimeWindow) IsAll() bool {
	return tw == TimeWindowAll
}
