package utils

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestRoundToDecimalPrecision() {
	suite.Equal(1.23, RoundToDecimalPrecision(1.239, 2))
	suite.Equal(10.0, RoundToDecimalPrecision(10.9, 0))
	suite.Equal(0.0, RoundToDecimalPrecision(0.0009, 3))
	suite.Equal(2.0, RoundToDecimalPrecision(2, 8))
}

func (suite *UtilsTestSuite) TestQuoteSQLString() {
	suite.Equal("'/data/bars.parquet'", QuoteSQLString("/data/bars.parquet"))
	suite.Equal("'/data/o''brien/bars.parquet'", QuoteSQLString("/data/o'brien/bars.parquet"))
	suite.Equal("''''''", QuoteSQLString("''"))
	suite.Equal("''", QuoteSQLString(""))
}
