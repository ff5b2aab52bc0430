package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DedupeAndTrim([]string{" a ", "b", "a", "", "  "}))
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Nil(t, DedupeAndTrim([]string{" ", ""}))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t,
		[]string{"4111111111111111", "5555555555554444"},
		SplitList(" 4111111111111111, ,5555555555554444,4111111111111111 "),
	)
	assert.Nil(t, SplitList(""))
}
