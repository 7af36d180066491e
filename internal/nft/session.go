package nft

// OnConnect warms the cache for the newly connected address.
func (s *Service) OnConnect(address string) {
	s.Prefetch(address)
}

// OnDisconnect drops the previous address so its records are never served again.
func (s *Service) OnDisconnect(address string) {
	s.Forget(address)
}
