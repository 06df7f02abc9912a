package domain

// Building 建筑（对应 buildings 表），属于一个 Project
type Building struct {
	ID                   string  `db:"id" json:"id"`
	Name                 string  `db:"name" json:"name,omitempty"`
	ClassificationCode   string  `db:"classification_code" json:"classificationCode,omitempty"` // SANS 10400 occupancy class
	FloorArea            float64 `db:"floor_area" json:"floorArea,omitempty"`                   // m²
	Description          string  `db:"description" json:"description,omitempty"`
	ExternalWallMaterial string  `db:"external_wall_material" json:"externalWallMaterial,omitempty"`
	InternalWallMaterial string  `db:"internal_wall_material" json:"internalWallMaterial,omitempty"`
	PhotoRef             string  `db:"photo_ref" json:"photoRef,omitempty"`
	LayoutRef            string  `db:"layout_ref" json:"layoutRef,omitempty"`

	Areas []*Area `json:"areas,omitempty"`
}

// Area 区域（对应 areas 表），属于一个 Building
type Area struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name,omitempty"`

	Rooms       []*Room      `json:"rooms,omitempty"`
	Commodities []*Commodity `json:"commodities,omitempty"`
}

// Room 房间（对应 rooms 表）
type Room struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name,omitempty"`
	Description string `db:"description" json:"description,omitempty"`
	PhotoRef    string `db:"photo_ref" json:"photoRef,omitempty"`
}

// Commodity 存储物品（对应 expected_commodities 表）
type Commodity struct {
	ID             string  `db:"id" json:"id"`
	Name           string  `db:"name" json:"name,omitempty"`
	CategoryCode   string  `db:"category_code" json:"categoryCode,omitempty"`
	StackingHeight float64 `db:"stacking_height" json:"stackingHeight,omitempty"` // m
	StorageType    string  `db:"storage_type" json:"storageType,omitempty"`
}
