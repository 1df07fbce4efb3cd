package topic

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// MaxTopicLength is the MQTT protocol limit on topic length (two-byte length
// prefix on the wire).
const MaxTopicLength = 65535

// Match reports whether a concrete topic matches a subscription filter using
// MQTT wildcard semantics: '+' matches exactly one level, '#' must be the
// final level and matches any remainder, including none.
//
// Per MQTT-4.7.2-1, filters starting with a wildcard never match topics
// starting with '$'.
func Match(filter, topic string) bool {
	if strings.HasPrefix(topic, "$") &&
		(strings.HasPrefix(filter, SingleLevelWildcard) || strings.HasPrefix(filter, MultiLevelWildcard)) {
		return false
	}

	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for i, level := range filterLevels {
		if level == MultiLevelWildcard {
			// '#' anywhere but the end is an invalid filter; match nothing.
			return i == len(filterLevels)-1
		}
		if i >= len(topicLevels) {
			return false
		}
		if level != SingleLevelWildcard && level != topicLevels[i] {
			return false
		}
	}

	return len(filterLevels) == len(topicLevels)
}

// ValidateTopic validates a concrete topic for publishing. Publish topics
// must not contain wildcards.
func ValidateTopic(topic string) error {
	if err := validateCommon(topic); err != nil {
		return err
	}
	if strings.Contains(topic, SingleLevelWildcard) || strings.Contains(topic, MultiLevelWildcard) {
		return fmt.Errorf("topic %q: %w", topic, errors.ErrWildcardInPublish)
	}
	return nil
}

// ValidateFilter validates a subscription filter. Wildcards are allowed but
// must follow MQTT placement rules: '+' alone in its level, '#' alone in the
// final level.
func ValidateFilter(filter string) error {
	if err := validateCommon(filter); err != nil {
		return err
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, SingleLevelWildcard) && level != SingleLevelWildcard {
			return fmt.Errorf("filter %q: '+' must occupy an entire level: %w", filter, errors.ErrInvalidTopic)
		}
		if strings.Contains(level, MultiLevelWildcard) {
			if level != MultiLevelWildcard {
				return fmt.Errorf("filter %q: '#' must occupy an entire level: %w", filter, errors.ErrInvalidTopic)
			}
			if i != len(levels)-1 {
				return fmt.Errorf("filter %q: '#' must be the final level: %w", filter, errors.ErrInvalidTopic)
			}
		}
	}
	return nil
}

func validateCommon(topic string) error {
	if topic == "" {
		return fmt.Errorf("empty topic: %w", errors.ErrInvalidTopic)
	}
	if len(topic) > MaxTopicLength {
		return fmt.Errorf("topic length %d exceeds maximum %d: %w", len(topic), MaxTopicLength, errors.ErrInvalidTopic)
	}
	if strings.Contains(topic, "\x00") {
		return fmt.Errorf("topic contains null byte: %w", errors.ErrInvalidTopic)
	}
	if !utf8.ValidString(topic) {
		return fmt.Errorf("topic is not valid UTF-8: %w", errors.ErrInvalidTopic)
	}
	return nil
}
