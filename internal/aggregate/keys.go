package aggregate

import "fmt"

// Store names.
const (
	StoreSwapVolumes   = "swap_volumes"
	StorePoolStats     = "pool_stats"
	StoreUniqueTraders = "unique_traders"
)

// Protocol-wide counter keys.
const (
	TotalVolumeKey = "total:volume"
	TotalSwapsKey  = "total:swaps"
)

func PoolVolumeKey(pool string) string     { return fmt.Sprintf("pool:%s:volume", pool) }
func PoolCountKey(pool string) string      { return fmt.Sprintf("pool:%s:count", pool) }
func PoolTradeCountKey(pool string) string { return fmt.Sprintf("pool:%s:trade_count", pool) }
func DailyVolumeKey(date string) string    { return fmt.Sprintf("daily:%s:volume", date) }
func DailyCountKey(date string) string     { return fmt.Sprintf("daily:%s:count", date) }
func HourlyVolumeKey(hour string) string   { return fmt.Sprintf("hourly:%s:volume", hour) }
func HourlyCountKey(hour string) string    { return fmt.Sprintf("hourly:%s:count", hour) }

// TraderKey marks the first block:timestamp a wallet swapped.
func TraderKey(trader string) string { return fmt.Sprintf("trader:%s", trader) }

// DailyTraderKey marks the first block a wallet swapped on a date.
func DailyTraderKey(date, trader string) string {
	return fmt.Sprintf("daily:%s:trader:%s", date, trader)
}

// PoolTraderKey marks the first block a wallet swapped in a pool.
func PoolTraderKey(pool, trader string) string {
	return fmt.Sprintf("pool:%s:trader:%s", pool, trader)
}
