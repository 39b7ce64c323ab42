package plural_test

import (
	"errors"
	"testing"

	"github.com/vrckit/localize/plural"

	"github.com/stretchr/testify/require"
)

func TestCompileZero(t *testing.T) {
	t.Parallel()

	c, err := plural.Compile("n = 0")
	require.NoError(t, err)
	require.True(t, c.Match(plural.OperandsFromInt(0)))
	require.False(t, c.Match(plural.OperandsFromInt(1)))
	require.Equal(t, "n = 0", c.String())
}

func TestCompileMatch(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, rule string, match []string, noMatch []string) {
		t.Helper()
		c, err := plural.Compile(rule)
		require.NoError(t, err)
		for _, n := range match {
			require.True(t, c.Match(plural.MustOperands(n)), "%q must match %s", rule, n)
		}
		for _, n := range noMatch {
			require.False(t, c.Match(plural.MustOperands(n)), "%q must not match %s", rule, n)
		}
	}

	f(t, "", []string{"0", "1", "2.5"}, nil)
	f(t, "i = 1 and v = 0",
		[]string{"1"},
		[]string{"0", "1.0", "2", "11"})
	f(t, "n = 1",
		[]string{"1", "1.0", "1.00"},
		[]string{"0", "1.1", "2"})
	f(t, "n != 1",
		[]string{"0", "2", "1.5"},
		[]string{"1"})
	f(t, "i = 0,1",
		[]string{"0", "1", "1.5", "0.3"},
		[]string{"2"})
	f(t, "n = 2..4",
		[]string{"2", "3", "4", "3.0"},
		[]string{"1", "5", "2.5"})
	f(t, "n % 100 = 3..10",
		[]string{"3", "10", "103", "1003", "110.0"},
		[]string{"0", "2", "11", "100", "103.5"})
	f(t, "v = 0 and i % 10 = 2..4 and i % 100 != 12..14",
		[]string{"2", "3", "4", "22", "104"},
		[]string{"12", "13", "14", "5", "2.5", "112"})
	f(t, "n = 0 or n = 2, 5..7 or t != 0 and i = 1",
		[]string{"0", "2", "5", "6", "7", "1.5"},
		[]string{"1", "3", "8", "1.0"})
	f(t, "e = 0 and i != 0 and i % 1000000 = 0 and v = 0 or e != 0..5",
		[]string{"1000000", "2000000"},
		[]string{"0", "1000", "1000000.5"})
	f(t, "f = 0 and w = 0",
		[]string{"1", "1.0", "1.00"},
		[]string{"1.5"})
}

func TestCompileSamples(t *testing.T) {
	t.Parallel()

	c, err := plural.Compile(
		"v = 0 and i % 10 = 1 and i % 100 != 11 " +
			"@integer 1, 21, 31, 41, 51, 61, 71, 81, 101, 1001, …")
	require.NoError(t, err)
	require.Len(t, c.IntegerSamples(), 10)
	require.Empty(t, c.DecimalSamples())

	c, err = plural.Compile(
		" @integer 0~15, 100, 1000, 10000, 100000, 1000000, … " +
			"@decimal 0.0~1.5, 10.0, 100.0, 1000.0, 10000.0, 100000.0, 1000000.0, …")
	require.NoError(t, err)
	require.Equal(t, "", c.String())
	require.Equal(t, plural.Sample{From: "0", To: "15"}, c.IntegerSamples()[0])
	require.True(t, c.IntegerSamples()[0].IsRange())
	require.Equal(t, "0.0~1.5", c.DecimalSamples()[0].String())

	// Compact exponent samples are skipped.
	_, err = plural.Compile(
		"e = 0 and i != 0 and i % 1000000 = 0 and v = 0 or e != 0..5 " +
			"@integer 1000000, 1c6, 2c6, 3c6, 4c6, 5c6, 6c6, … " +
			"@decimal 1.0000001c6, 1.1c6, 2.0000001c6, 2.1c6, 3.0000001c6, 3.1c6, …")
	require.NoError(t, err)

	// Ellipsis written as three dots.
	_, err = plural.Compile("n = 1 @integer 1, ...")
	require.NoError(t, err)
}

func TestCompileErr(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, expect error, expectOffset int, rule string) {
		t.Helper()
		_, err := plural.Compile(rule)
		require.ErrorIs(t, err, expect)
		var perr *plural.Error
		require.True(t, errors.As(err, &perr))
		require.Equal(t, rule, perr.Rule)
		require.Equal(t, expectOffset, perr.Offset)
		require.Contains(t, err.Error(), rule)
	}

	f(t, plural.ErrSyntax, 1, "n")
	f(t, plural.ErrSyntax, 4, "n = ")
	f(t, plural.ErrSyntax, 3, "n == 1")
	f(t, plural.ErrSyntax, 6, "n = 1 nor n = 2")
	f(t, plural.ErrSyntax, 10, "n = 1 and ")
	f(t, plural.ErrSyntax, 5, "n = 1.5")
	f(t, plural.ErrSyntax, 2, "n > 1")
	f(t, plural.ErrSyntax, 4, "n % 0 = 1")
	f(t, plural.ErrSyntax, 7, "n = 5..2")
	f(t, plural.ErrSyntax, 0, "= 1")
	f(t, plural.ErrSyntax, 6, "n = 1 @fraction 1")
	f(t, plural.ErrUnknownOperand, 0, "x = 1")
	f(t, plural.ErrUnknownOperand, 9, "n = 1 or ni = 2")
	f(t, plural.ErrRedundantSample, 17, "n = 1 @integer 1 @integer 1")
	f(t, plural.ErrSampleMismatch, -1, "n = 1 @integer 1, 2")
	f(t, plural.ErrSampleMismatch, -1, "i = 1 and v = 0 @integer 1 @decimal 1.0")
	f(t, plural.ErrSampleMismatch, -1, "n = 0..9 @integer 0~10")
	f(t, plural.ErrSampleMismatch, -1, "i = 0 @decimal 0.0~1.5")
}

func TestSampleMismatchNamesSample(t *testing.T) {
	t.Parallel()

	_, err := plural.Compile("n = 0..9 @integer 0~10")
	require.ErrorIs(t, err, plural.ErrSampleMismatch)
	require.Contains(t, err.Error(), "@integer 10")

	_, err = plural.Compile("i = 0 @decimal 0.0~1.5")
	require.Contains(t, err.Error(), "@decimal 1.0")
}

func TestMustCompilePanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { plural.MustCompile("n = ") })
	require.NotPanics(t, func() { plural.MustCompile("n = 1 @integer 1") })
}
