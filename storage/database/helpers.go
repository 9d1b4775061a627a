package database

import "strconv"

// argList collects positional query args; add returns the placeholder for
// the value just appended.
type argList []interface{}

func (a *argList) add(v interface{}) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}
