package model

import "testing"

func TestStringArrayScan(t *testing.T) {
	var a StringArray
	if err := a.Scan("{night,outdoor,social}"); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(a) != 3 || a[0] != "night" || a[2] != "social" {
		t.Errorf("解析结果不符，实际=%v", a)
	}

	// 带引号与逗号的元素
	if err := a.Scan(`{"city walk","food, drink"}`); err != nil {
		t.Fatalf("Scan 带引号元素失败: %v", err)
	}
	if len(a) != 2 || a[0] != "city walk" || a[1] != "food, drink" {
		t.Errorf("带引号元素解析不符，实际=%v", a)
	}

	// 空数组
	if err := a.Scan("{}"); err != nil {
		t.Fatalf("Scan 空数组失败: %v", err)
	}
	if len(a) != 0 {
		t.Errorf("空数组应为零长度，实际=%v", a)
	}

	// NULL
	if err := a.Scan(nil); err != nil {
		t.Fatalf("Scan NULL 失败: %v", err)
	}
	if a != nil {
		t.Errorf("NULL 应解析为 nil，实际=%v", a)
	}
}

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray{"night", "food, drink"}.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}
	want := `{"night","food, drink"}`
	if v != want {
		t.Errorf("期望 %s，实际=%v", want, v)
	}

	// 序列化后再解析应还原
	var back StringArray
	if err := back.Scan(v.(string)); err != nil {
		t.Fatalf("回读失败: %v", err)
	}
	if len(back) != 2 || back[1] != "food, drink" {
		t.Errorf("回读结果不符，实际=%v", back)
	}
}
