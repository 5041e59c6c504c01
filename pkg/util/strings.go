package util

import "strconv"

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// ParseInt64Default parses string to int64 or returns default if empty/invalid.
func ParseInt64Default(s string, def int64) int64 {
    if s == "" {
        return def
    }
    v, err := strconv.ParseInt(s, 10, 64)
    if err != nil {
        return def
    }
    return v
}
