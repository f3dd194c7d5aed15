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

package reporters

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/coreos/crucible/harness/testresult"
)

type jsonReporter struct {
	Tests  []jsonTest `json:"tests"`
	Result string     `json:"result"`

	filename string
	mutex    sync.Mutex
}

type jsonTest struct {
	Suite    string        `json:"suite"`
	Name     string        `json:"name"`
	Result   string        `json:"result"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output"`
}

// NewJSON returns a reporter that writes a machine-readable report to
// filename when the run finishes.
func NewJSON(filename string) Reporter {
	return &jsonReporter{filename: filename}
}

// DeserialiseReport reads back a report written by the JSON reporter.
func DeserialiseReport(filename string) (map[string]interface{}, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err = json.Unmarshal(bytes, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *jsonReporter) RunStarted(total int)                     {}
func (r *jsonReporter) SuiteStarted(name string)                 {}
func (r *jsonReporter) SuiteFinished(s *testresult.SuiteSummary) {}

func (r *jsonReporter) TestFinished(res *testresult.Result) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Tests = append(r.Tests, jsonTest{
		Suite:    res.SuiteName,
		Name:     res.TestName,
		Result:   res.Status.String(),
		Duration: res.Duration,
		Output:   string(res.Output),
	})
}

func (r *jsonReporter) RunFinished(run *testresult.RunSummary) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if run.Ok() {
		r.Result = "PASS"
	} else {
		r.Result = "FAIL"
	}

	f, err := os.Create(r.filename)
	if err != nil {
		return
	}
	defer f.Close()
	json.NewEncoder(f).Encode(r)
}
