package domain

type Table string

const (
	TableItems         Table = "items"
	TableListings      Table = "listings"
	TableAuctions      Table = "auctions"
	TableSales         Table = "sales"
	TableRarityRecords Table = "rarity_records"
	TableCurrencies    Table = "currencies"
	TableCollections   Table = "collections"
	TableAccounts      Table = "accounts"
)
