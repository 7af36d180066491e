package model

// NftRecord is one NFT owned by a wallet, as rendered by the gallery.
type NftRecord struct {
	NftAddress  string `json:"nftAddress"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl,omitempty"`
	MetadataURI string `json:"metadataUri"`
}

// NftItem is an NFT as listed on chain, before off-chain metadata is resolved.
type NftItem struct {
	Mint   string
	Name   string
	Symbol string
	URI    string
}

// NftListResponse represents response for GET /api/nfts/{address}
type NftListResponse struct {
	Success bool        `json:"success"`
	NFTs    []NftRecord `json:"nfts"`
}
