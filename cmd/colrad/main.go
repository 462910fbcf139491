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

// Command colrad is a command-line interface for the colrad column
// radiative transfer model.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/colrad/colradutil"
)

func main() {
	if err := colradutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
