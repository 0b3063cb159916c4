package schema

// SchemaMeta 用于记录数据库 schema 版本，避免仅依赖 AutoMigrate 导致升级不可控。
// 表内仅维护单行（ID=1）。
type SchemaMeta struct {
	ID            int   `gorm:"primaryKey"`
	SchemaVersion int   `gorm:"not null"`
	CreatedAt     int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}

// All 返回需要迁移的全部模型
func All() []any {
	return []any{
		&SchemaMeta{},
		&Reset{},
		&ConstructionSite{},
		&Agent{},
		&ConstructionRequirement{},
		&JobRun{},
		&AgentLog{},
		&ConstructionLog{},
		&ConstructionMaterialLog{},
	}
}
