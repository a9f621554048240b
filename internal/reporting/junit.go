package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one model.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Timestamp  string          `xml:"timestamp,attr,omitempty"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one question put to one model.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure marks a reply with no extractable rating.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError marks a backend call that failed.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit builds one suite per model (sorted) and one case per question in result order.
func ConvertToJUnit(name string, results []models.QueryResult) *JUnitTestSuites {
	table := aggregate.Compute(results)
	out := &JUnitTestSuites{Name: name}

	for _, m := range table.Models {
		suite := JUnitTestSuite{
			Name: m,
			Properties: []JUnitProperty{
				{Name: "valid_responses", Value: strconv.Itoa(table.ValidByModel[m])},
				{Name: "score_sum", Value: strconv.Itoa(table.Sum(m))},
			},
		}

		for _, r := range results {
			if r.LLM != m {
				continue
			}
			if suite.Timestamp == "" && !r.Timestamp.IsZero() {
				suite.Timestamp = r.Timestamp.Format(time.RFC3339)
			}
			tc := convertResult(r)
			suite.Tests++
			if tc.Failure != nil {
				suite.Failures++
			}
			if tc.Error != nil {
				suite.Errors++
			}
			suite.TestCases = append(suite.TestCases, tc)
		}

		out.Tests += suite.Tests
		out.Failures += suite.Failures
		out.Errors += suite.Errors
		out.TestSuites = append(out.TestSuites, suite)
	}

	return out
}

func convertResult(r models.QueryResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      r.Question,
		Classname: fmt.Sprintf("%s.part%d", r.Foundation, r.Part),
	}

	switch r.Status() {
	case models.StatusError:
		tc.Error = &JUnitError{
			Message: r.Response[len(models.ErrorPrefix):],
			Type:    "BackendError",
		}
	case models.StatusUnparseable:
		tc.Failure = &JUnitFailure{
			Message: "no rating between 0 and 5 found in response",
			Type:    "Unparseable",
			Body:    r.Response,
		}
	default:
		tc.SystemOut = fmt.Sprintf("rating=%d", r.ExtractedValue)
	}

	return tc
}

// WriteJUnitXML writes JUnit XML for results.
func WriteJUnitXML(w io.Writer, name string, results []models.QueryResult) error {
	data, err := xml.MarshalIndent(ConvertToJUnit(name, results), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
