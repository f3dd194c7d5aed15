// Copyright 2025 CoreOS, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package testresult

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// The child serializes its result to stdout as ASCII records terminated
// by a unit separator byte. The record stream shares the pipe with
// whatever the test body printed, so record markers are located inside
// each chunk rather than assumed to start it. Fields of a failure
// record are pipe-separated; none of them may contain '|' or the
// separator byte (they are framework-controlled strings).
const (
	RecordSep = 0x1f

	statusPrefix  = "status="
	failurePrefix = "failure="
	endOfData     = "end_of_data"
)

// ErrNoResult indicates that no result records were found in a child's
// captured output.
var ErrNoResult = errors.New("testresult: no records in output")

// MarshalWire encodes the child-decided portion of the result: the
// status record, one failure record per recorded failure in FIFO order,
// and the closing end_of_data record.
func (r *Result) MarshalWire() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s%d", statusPrefix, int(r.Status))
	b.WriteByte(RecordSep)
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "%s%s|%d|%s|%s|%s", failurePrefix,
			f.File, f.Line, f.Condition, f.Expected, f.Actual)
		b.WriteByte(RecordSep)
	}
	b.WriteString(endOfData)
	b.WriteByte(RecordSep)
	return b.Bytes()
}

// UnmarshalWire decodes a result from a child's captured output. Bytes
// that precede a record marker within a chunk are test output and are
// skipped. Returns ErrNoResult if no status record was seen before
// end_of_data (or end of input).
func UnmarshalWire(data []byte) (*Result, error) {
	r := &Result{}
	sawStatus := false

	for _, chunk := range bytes.Split(data, []byte{RecordSep}) {
		s := string(chunk)
		switch {
		case strings.Contains(s, statusPrefix):
			v := s[strings.LastIndex(s, statusPrefix)+len(statusPrefix):]
			code, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.Wrapf(err, "testresult: bad status record %q", v)
			}
			r.Status = Status(code)
			sawStatus = true
		case strings.Contains(s, failurePrefix):
			body := s[strings.LastIndex(s, failurePrefix)+len(failurePrefix):]
			r.Append(parseFailure(body))
		case strings.HasSuffix(s, endOfData):
			if !sawStatus {
				return nil, ErrNoResult
			}
			return r, nil
		}
	}

	if !sawStatus {
		return nil, ErrNoResult
	}
	return r, nil
}

// parseFailure splits a failure record body on '|'. Missing trailing
// fields are treated as empty.
func parseFailure(body string) Failure {
	fields := strings.Split(body, "|")
	for len(fields) < 5 {
		fields = append(fields, "")
	}
	line, _ := strconv.Atoi(fields[1])
	return Failure{
		File:      fields[0],
		Line:      line,
		Condition: fields[2],
		Expected:  fields[3],
		Actual:    fields[4],
	}
}
