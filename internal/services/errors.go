package services

import "errors"

// ErrNoWindow is returned by WindowSelector.SelectWhere when no start date passes the filter.
var ErrNoWindow = errors.New("no travel window passes the filter")
