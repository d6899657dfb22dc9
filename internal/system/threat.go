package system

import "github.com/wsgo/server/internal/world"

// HealThreatFactor scales threat credited to a healer per point healed.
const HealThreatFactor = 0.5

// AddThreat 累加仇恨值並維護當前目標。新仇恨累計超過當前目標時自動切換。
// 地圖實例單線程呼叫，無需鎖。
func AddThreat(c *world.Entity, attackerGUID uint64, amount int64) {
	if amount <= 0 || attackerGUID == 0 {
		return
	}
	if c.Threat == nil {
		c.Threat = make(map[uint64]int64)
	}
	c.Threat[attackerGUID] += amount

	if c.TargetGUID == 0 {
		c.TargetGUID = attackerGUID
		return
	}
	if attackerGUID != c.TargetGUID {
		if c.Threat[attackerGUID] > c.Threat[c.TargetGUID] {
			c.TargetGUID = attackerGUID
		}
	}
}

// MaxThreatTarget 回傳仇恨值最高且仍然有效的目標 GUID。無效條目（已登出、
// 已離開地圖）順手剪除。回傳 0 表示仇恨列表已空。
func MaxThreatTarget(z *world.ZoneInstance, c *world.Entity) uint64 {
	var maxGUID uint64
	var maxThreat int64 = -1
	for guid, threat := range c.Threat {
		e, ok := z.Entities[guid]
		if !ok || !e.Alive() || threat <= 0 {
			delete(c.Threat, guid)
			continue
		}
		if threat > maxThreat {
			maxThreat = threat
			maxGUID = guid
		}
	}
	return maxGUID
}

// RemoveThreat 從仇恨列表移除指定目標（斷線或離開範圍）。
func RemoveThreat(c *world.Entity, guid uint64) {
	if c.Threat != nil {
		delete(c.Threat, guid)
	}
	if c.TargetGUID == guid {
		c.TargetGUID = 0
	}
}

// ClearThreat 清空仇恨列表（死亡或脫戰返回時呼叫）。
func ClearThreat(c *world.Entity) {
	c.Threat = nil
	c.TargetGUID = 0
}
