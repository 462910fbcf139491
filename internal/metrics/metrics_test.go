/*
Copyright © 2019 the colrad authors.
This file is part of colrad.

colrad is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

colrad is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with colrad.  If not, see <http://www.gnu.org/licenses/>.
*/

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClampRecorder(t *testing.T) {
	before := testutil.ToFloat64(RadiusClamped.WithLabelValues("liquid"))
	rec := ClampRecorder()
	rec("liquid", 3)
	rec("liquid", 0)
	after := testutil.ToFloat64(RadiusClamped.WithLabelValues("liquid"))
	if after-before != 3 {
		t.Errorf("clamp count increased by %g, want 3", after-before)
	}
}
