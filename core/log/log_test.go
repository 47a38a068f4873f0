// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/binaryxml/core/assert"
	"github.com/google/binaryxml/core/log"
	"github.com/pkg/errors"
)

type recorder struct {
	logs, errors, fatals []string
}

func (r *recorder) Log(args ...interface{})   { r.logs = append(r.logs, fmt.Sprint(args...)) }
func (r *recorder) Error(args ...interface{}) { r.errors = append(r.errors, fmt.Sprint(args...)) }
func (r *recorder) Fatal(args ...interface{}) { r.fatals = append(r.fatals, fmt.Sprint(args...)) }

func TestTestHandlerRoutesBySeverity(t *testing.T) {
	assert := assert.To(t)
	r := &recorder{}
	ctx := log.Testing(r)
	log.I(ctx, "hello %d", 1)
	log.W(ctx, "careful")
	log.E(ctx, "broken")
	assert.For("logs").ThatSlice(r.logs).Equals([]string{"I: hello 1", "W: careful"})
	assert.For("errors").ThatSlice(r.errors).Equals([]string{"E: broken"})
	assert.For("fatals").ThatSlice(r.fatals).IsEmpty()
}

func TestSeverityFilter(t *testing.T) {
	assert := assert.To(t)
	buf := &bytes.Buffer{}
	ctx := log.PutHandler(context.Background(), log.Writer(log.Normal, buf))
	ctx = log.PutFilter(ctx, log.SeverityFilter(log.Warning))
	ctx = log.PutTag(ctx, "codec")
	log.D(ctx, "hidden")
	log.I(ctx, "hidden")
	log.W(ctx, "shown")
	assert.For("output").ThatString(buf.String()).Equals("W: [codec] shown\n")
}

func TestNoHandlerIsSilent(t *testing.T) {
	log.I(context.Background(), "nobody is listening")
}

func TestErrKeepsCause(t *testing.T) {
	assert := assert.To(t)
	cause := errors.New("root")
	err := log.Err(context.Background(), cause, "Decoding")
	assert.For("cause").ThatError(err).HasCause(cause)
	assert.For("message").ThatString(err.Error()).Equals("Decoding\n   Cause: root")
	assert.For("no cause").ThatError(log.Errf(context.Background(), nil, "plain %d", 2)).HasMessage("plain 2")
}
