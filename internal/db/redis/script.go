package redis

import "github.com/redis/rueidis"

// Guarded writes run as scripts so the existence check and the write are one
// atomic step. KEYS[1] is the guard key in both; the reply is 1 when applied
// and 0 when the guard is missing.
var (
	hsetIfExistsScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

	// ARGV[1] is the member, ARGV[2] the number of KEYS after the guard that
	// receive it; the remaining KEYS lose it.
	smoveIfExistsScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
local adds = tonumber(ARGV[2])
for i = 2, #KEYS do
  if i - 1 <= adds then
    redis.call('SADD', KEYS[i], ARGV[1])
  else
    redis.call('SREM', KEYS[i], ARGV[1])
  end
end
return 1
`)
)
