package model

// MaxCC 通讯录中抄送列的数量（CC1_mail..CC4_mail）
const MaxCC = 4

// DirectoryEntry 供应商通讯录行
type DirectoryEntry struct {
	Row          int           `json:"row"`
	SupplierName string        `json:"supplierName"` // 规范化后的供应商名称
	SendTo       string        `json:"sendTo"`
	CC           [MaxCC]string `json:"cc"`
}

// Directory 供应商通讯录加载结果
type Directory struct {
	Sheet   string           `json:"sheet"`
	Entries []DirectoryEntry `json:"entries"`
	Issues  []Issue          `json:"issues"`
}

// Lookup 按规范化名称查找
func (d *Directory) Lookup(name string) (DirectoryEntry, bool) {
	for _, e := range d.Entries {
		if e.SupplierName == name {
			return e, true
		}
	}
	return DirectoryEntry{}, false
}
