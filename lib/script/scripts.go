package script

import "fmt"

// ReleaseLockScript deletes KEYS[1] only if it holds the owner token ARGV[1].
// Returns 1 if the lock was deleted, 0 otherwise.
const ReleaseLockScript = `
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`

// DecrementScript decrements the integer at KEYS[1] by ARGV[1] if the result
// stays non-negative. Both operands are parsed as numbers before comparing, a
// missing counter counts as 0. Returns the remaining quantity or -1.
const DecrementScript = `
local amount = tonumber(ARGV[1])
if amount == nil or amount <= 0 or amount % 1 ~= 0 then
    return redis.error_reply('ERR amount must be a positive integer')
end
local current = tonumber(redis.call('get', KEYS[1]) or '0')
if current == nil then
    return redis.error_reply('ERR counter is not an integer')
end
if current - amount >= 0 then
    return redis.call('decrby', KEYS[1], ARGV[1])
end
return -1
`

// DrainSetScript returns all members of the set at KEYS[1] and deletes it.
// Returns nil if the set is empty or missing.
const DrainSetScript = `
if redis.call('scard', KEYS[1]) > 0 then
    local members = redis.call('smembers', KEYS[1])
    redis.call('del', KEYS[1])
    return members
end
return nil
`

// AcquireLockScript sets KEYS[1] to the owner token ARGV[1] if it is unset.
// A positive ARGV[2] sets a ttl in milliseconds. Returns 1 if the lock was set, 0 otherwise.
const AcquireLockScript = `
local ok
if tonumber(ARGV[2]) > 0 then
    ok = redis.call('set', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2])
else
    ok = redis.call('set', KEYS[1], ARGV[1], 'NX')
end
if ok then
    return 1
end
return 0
`

// setIfStaleTemplate sets KEYS[1] to ARGV[1] if the key is missing or the
// predicate holds for the stored value. Returns 1 if set, 0 if kept.
const setIfStaleTemplate = `
if redis.call('exists', KEYS[1]) == 0 then
    redis.call('set', KEYS[1], ARGV[1])
    return 1
end
local current = redis.call('get', KEYS[1])
local candidate = ARGV[1]
if %s then
    redis.call('set', KEYS[1], ARGV[1])
    return 1
end
return 0
`

// Predicate decides whether the stored value of a key is stale compared to a candidate.
// Condition is a Lua boolean expression over the string locals current and candidate.
type Predicate struct {
	Name      string
	Condition string
}

var (
	// OlderVersion treats the stored value as stale if it is numerically lower than the
	// candidate. Values that do not parse as numbers are stale.
	OlderVersion = Predicate{
		Name:      "older-version",
		Condition: "tonumber(current) == nil or (tonumber(candidate) ~= nil and tonumber(current) < tonumber(candidate))",
	}
	// NotEqual treats any stored value different from the candidate as stale
	NotEqual = Predicate{
		Name:      "not-equal",
		Condition: "current ~= candidate",
	}
)

// NewPredicate creates a custom predicate from a Lua condition
func NewPredicate(name, condition string) Predicate {
	return Predicate{Name: name, Condition: condition}
}

// source renders the set-if-stale script for the predicate
func (p Predicate) source() string {
	return fmt.Sprintf(setIfStaleTemplate, p.Condition)
}
