package services

import (
	"context"
	"strconv"
	"unicode/utf8"

	"stayhub-backend/config"
	"stayhub-backend/models"
)

type VariableInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example"`
	Category    string `json:"category"`
}

// AvailableVariables documents what BuildVariables produces.
var AvailableVariables = []VariableInfo{
	{"name", "예약자 이름", "김철수", "reservation"},
	{"customerName", "예약자 이름", "김철수", "reservation"},
	{"phone", "전화번호", "010-1234-5678", "reservation"},
	{"status", "예약 상태", "confirmed", "reservation"},
	{"tags", "태그", "객후,1초", "reservation"},
	{"building", "건물", "A", "room"},
	{"roomNum", "호수", "101", "room"},
	{"roomNumber", "전체 객실 번호", "A101", "room"},
	{"roomInfo", "객실 타입", "스탠다드", "room"},
	{"password", "객실 비밀번호", "12345", "room"},
	{"partyParticipants", "파티 참여 인원(예약)", "2", "party"},
	{"totalParticipants", "총 참여 인원", "25", "party"},
	{"maleCount", "남성 참여 인원", "13", "party"},
	{"femaleCount", "여성 참여 인원", "12", "party"},
	{"priceInfo", "파티 가격 안내", "남자 3만원 / 여자 2만원", "party"},
	{"partyTime", "파티 시작 시간", "저녁 8시", "party"},
	{"secondPartyTime", "2차 시작 시간", "밤 10시", "party"},
	{"date", "예약 날짜", "2026-02-09", "datetime"},
	{"time", "예약 시간", "14:00", "datetime"},
	{"location", "장소", "스테이블 B동 1층 포차", "other"},
}

// DefaultParty holds the party details used when none are configured.
var DefaultParty = config.PartyConfig{
	PriceInfo:       "남자 3만원 / 여자 2만원\n계좌: 카카오뱅크 3333-12-3456789 (홍길동)",
	PartyTime:       "저녁 8시",
	SecondPartyTime: "밤 10시",
	Location:        "스테이블 B동 1층 포차",
}

// withPartyDefaults fills empty fields of p from DefaultParty.
func withPartyDefaults(p config.PartyConfig) config.PartyConfig {
	if p.PriceInfo == "" {
		p.PriceInfo = DefaultParty.PriceInfo
	}
	if p.PartyTime == "" {
		p.PartyTime = DefaultParty.PartyTime
	}
	if p.SecondPartyTime == "" {
		p.SecondPartyTime = DefaultParty.SecondPartyTime
	}
	if p.Location == "" {
		p.Location = DefaultParty.Location
	}
	return p
}

type StatsReader interface {
	ParticipantStats(ctx context.Context, date string) (models.ParticipantStats, error)
}

// SplitRoomNumber splits "A101" into building "A" and room "101". The
// building is the first character, not the first byte.
func SplitRoomNumber(room string) (building, roomNum string) {
	if utf8.RuneCountInString(room) < 2 {
		return "", room
	}
	_, size := utf8.DecodeRuneInString(room)
	return room[:size], room[size:]
}

// BuildVariables computes the render variables for one reservation. Entries
// in custom override computed ones and the party details.
func BuildVariables(r *models.Reservation, stats models.ParticipantStats, party config.PartyConfig, custom map[string]any) map[string]any {
	room := r.Room()
	building, roomNum := SplitRoomNumber(room)

	vars := map[string]any{
		"name":              r.CustomerName,
		"customerName":      r.CustomerName,
		"phone":             r.Phone,
		"status":            string(r.Status),
		"tags":              r.Tags,
		"roomNumber":        room,
		"building":          building,
		"roomNum":           roomNum,
		"roomInfo":          r.RoomInfo,
		"password":          r.RoomPassword,
		"partyParticipants": strconv.Itoa(r.PartyParticipants),
		"totalParticipants": strconv.Itoa(stats.Total),
		"maleCount":         strconv.Itoa(stats.Male),
		"femaleCount":       strconv.Itoa(stats.Female),
		"priceInfo":         party.PriceInfo,
		"partyTime":         party.PartyTime,
		"secondPartyTime":   party.SecondPartyTime,
		"location":          party.Location,
		"date":              r.Date,
		"time":              r.Time,
	}

	for k, v := range custom {
		vars[k] = v
	}
	return vars
}
