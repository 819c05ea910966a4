package clepsydra

import (
	"regexp"
	"sync"
)

var patternCache sync.Map

func regexpMatch(pattern, s string) bool {
	re, ok := patternCache.Load(pattern)
	if !ok {
		re, _ = patternCache.LoadOrStore(pattern, regexp.MustCompile(pattern))
	}
	return re.(*regexp.Regexp).MatchString(s)
}
