/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestDefaultsLeaveRequestUnchanged(t *testing.T) {
	p := NewPageRequest(0, 0)

	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())
	assert.Equal(t, PageRequest{}, *p)
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 40, NewPageRequest(3, 20).GetOffset())
	assert.Equal(t, 0, NewPageRequest(-2, 5).GetOffset())
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Descending, ParseDirection(" DESC "))
	assert.Equal(t, Descending, ParseDirection("descending"))
	assert.Equal(t, Ascending, ParseDirection("sideways"))
	assert.Equal(t, Ascending, Descending.Flip())
	assert.Equal(t, "DESC", Descending.SQL())
}
