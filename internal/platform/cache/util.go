package cache

import (
	"time"
)

// TimeUntilNextMarketOpen は次の市場開始時刻（インド時間 09:15）までの期間を返します。
// 日次キャンドルは取引開始まで変化しないため、キャッシュTTLとして使用します。
func TimeUntilNextMarketOpen() time.Duration {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	now := time.Now().In(loc)

	// 次の09:15を計算
	nextOpen := time.Date(now.Year(), now.Month(), now.Day(), 9, 15, 0, 0, loc)

	// 今日の09:15が既に過ぎている場合は翌日の09:15を使用
	if now.After(nextOpen) {
		nextOpen = nextOpen.Add(24 * time.Hour)
	}

	return nextOpen.Sub(now)
}
