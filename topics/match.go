// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

// Match reports whether topic matches filter using the same rules as the
// subscription tree:
//   - '+' matches exactly one level, including an empty one ("a/+/b" matches "a//b").
//   - '#' as the last level matches the parent level and everything below it.
//   - A filter consisting of "#" alone matches every topic, the empty topic included.
//   - '$' topics get no special treatment.
//
// Match walks both strings in place and does not allocate.
func Match(filter, topic string) bool {
	if filter == MultiLevelWildcard {
		return true
	}
	if filter == "" || topic == "" {
		return false
	}

	fi, ti := 0, 0
	for {
		fEnd := indexSep(filter, fi)
		fLevel := filter[fi:fEnd]
		lastFilterLevel := fEnd == len(filter)

		if fLevel == MultiLevelWildcard && lastFilterLevel {
			return true
		}

		tEnd := indexSep(topic, ti)
		if fLevel != SingleLevelWildcard && fLevel != topic[ti:tEnd] {
			return false
		}
		lastTopicLevel := tEnd == len(topic)

		switch {
		case lastFilterLevel && lastTopicLevel:
			return true
		case lastTopicLevel:
			// "a/#" also matches "a".
			rest := filter[fEnd+1:]
			return rest == MultiLevelWildcard
		case lastFilterLevel:
			return false
		}

		fi, ti = fEnd+1, tEnd+1
	}
}

func indexSep(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == '/' {
			return i
		}
	}
	return len(s)
}
